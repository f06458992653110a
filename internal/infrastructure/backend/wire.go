package backend

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/sdm/cabinet-client/internal/core/domain"
)

// wireFlag is the backend's two-valued string boolean ("True"/"False").
// It exists only at the (de)serialization edge; the domain uses bool.
type wireFlag bool

func (f wireFlag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte(`"True"`), nil
	}
	return []byte(`"False"`), nil
}

func (f *wireFlag) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(b), `"`) {
	case "True", "true":
		*f = true
	case "False", "false", "null", "":
		*f = false
	default:
		return fmt.Errorf("invalid favorite flag %s", b)
	}
	return nil
}

// wireQuantity accepts both JSON numbers and numeric strings; older clients
// sent the raw text of the quantity input.
type wireQuantity float64

func (q *wireQuantity) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*q = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid quantity %s: %w", b, err)
	}
	*q = wireQuantity(v)
	return nil
}

type wireIngredient struct {
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Quantity wireQuantity `json:"quantity"`
	Favorite wireFlag     `json:"favorite"`
}

type wireIngredientSet struct {
	Default []wireIngredient `json:"default"`
	Custom  []wireIngredient `json:"custom"`
}

type updateIngredientRequest struct {
	Name       string   `json:"name"`
	Quantity   float64  `json:"quantity"`
	IsFavorite wireFlag `json:"isFavorite"`
}

type customIngredientRequest struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

type userIngredientsRequest struct {
	Ingredients []string `json:"ingredients"`
}

type loginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type passwordLinkRequest struct {
	LoginID string `json:"loginId"`
}

type passwordResetRequest struct {
	NewPassword string `json:"newPassword"`
}

func toDomainIngredients(in []wireIngredient, origin domain.Origin) []domain.Ingredient {
	out := make([]domain.Ingredient, 0, len(in))
	for _, w := range in {
		typ, err := domain.ParseIngredientType(w.Type)
		if err != nil {
			typ = domain.TypeOther
		}
		qty := float64(w.Quantity)
		if qty < 0 {
			qty = 0
		}
		out = append(out, domain.Ingredient{
			Name:     w.Name,
			Type:     typ,
			Quantity: qty,
			Favorite: bool(w.Favorite),
			Origin:   origin,
		})
	}
	return out
}
