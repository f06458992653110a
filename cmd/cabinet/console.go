package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/sdm/cabinet-client/internal/api/handler"
	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
)

// console is the terminal rendition of the client's UI ports: navigation
// prints the target, alerts print a line, prompts read one line of input.
type console struct {
	out io.Writer

	mu   sync.Mutex
	in   *bufio.Scanner
	last *domain.Location
}

var (
	_ ports.Navigator = (*console)(nil)
	_ ports.Notifier  = (*console)(nil)
	_ ports.Prompter  = (*console)(nil)
)

func newConsole(in io.Reader, out io.Writer) *console {
	return &console{in: bufio.NewScanner(in), out: out}
}

func (c *console) Navigate(to domain.Location) {
	c.mu.Lock()
	c.last = &to
	c.mu.Unlock()
	fmt.Fprintf(c.out, "-> %s\n", to.Href())
}

// Location returns where the last navigation went.
func (c *console) Location() (domain.Location, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return domain.Location{}, false
	}
	return *c.last, true
}

func (c *console) Alert(message string) {
	fmt.Fprintf(c.out, "! %s\n", message)
}

// Prompt reads a line. End of input counts as cancelling.
func (c *console) Prompt(label string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s: ", label)
	if !c.in.Scan() {
		fmt.Fprintln(c.out)
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Table prints a cabinet page the way the table widget lays it out.
func (c *console) Table(t handler.TableModel) {
	fmt.Fprintf(c.out, "%s\n\n", t.Title)
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns[:4], "\t"))
	for _, r := range t.Rows {
		fav := ""
		if r.Favorite {
			fav = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Type, strconv.FormatFloat(r.Quantity, 'f', -1, 64), fav)
	}
	_ = tw.Flush()
	if len(t.Rows) == 0 {
		fmt.Fprintln(c.out, "(no ingredients)")
	}
}

// Feed prints a recipe feed, or its message when there is no grid.
func (c *console) Feed(v domain.FeedView) {
	if !v.ShowGrid() {
		fmt.Fprintln(c.out, v.Message)
		return
	}
	for i, r := range v.Recipes {
		if i > 0 {
			fmt.Fprintln(c.out)
		}
		fmt.Fprintf(c.out, "%s\n  %s\n  %s\n", r.Name, strings.Join(r.Ingredients, ", "), r.Instructions)
	}
}
