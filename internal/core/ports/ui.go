package ports

import "github.com/sdm/cabinet-client/internal/core/domain"

// Navigator performs client-side navigation.
type Navigator interface {
	Navigate(to domain.Location)
}

// Notifier shows a blocking notification to the user.
type Notifier interface {
	Alert(message string)
}

// Prompter asks the user for a line of input. ok is false when the user
// cancelled.
type Prompter interface {
	Prompt(label string) (value string, ok bool)
}
