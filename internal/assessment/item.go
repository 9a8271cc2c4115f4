package assessment

import (
	"fmt"
	"strings"
)

// Item is one multiple-choice question.
type Item struct {
	ID      int      `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

// Bank is an ordered, immutable sequence of items.
type Bank struct {
	items []Item
}

// NewBank validates items and returns a bank holding a private copy of them.
// Item IDs are reassigned to their position in the bank.
func NewBank(items []Item) (*Bank, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalidBank)
	}
	out := make([]Item, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.Prompt) == "" {
			return nil, fmt.Errorf("%w: item %d has an empty prompt", ErrInvalidBank, i)
		}
		if len(it.Options) == 0 {
			return nil, fmt.Errorf("%w: item %d has no options", ErrInvalidBank, i)
		}
		if it.Correct < 0 || it.Correct >= len(it.Options) {
			return nil, fmt.Errorf("%w: item %d correct option %d not in [0,%d)",
				ErrInvalidBank, i, it.Correct, len(it.Options))
		}
		out[i] = Item{
			ID:      i,
			Prompt:  it.Prompt,
			Options: append([]string(nil), it.Options...),
			Correct: it.Correct,
		}
	}
	return &Bank{items: out}, nil
}

// Len returns the number of items.
func (b *Bank) Len() int { return len(b.items) }

// Item returns a copy of the item at index i.
func (b *Bank) Item(i int) (Item, error) {
	if i < 0 || i >= len(b.items) {
		return Item{}, fmt.Errorf("%w: item %d not in [0,%d)", ErrIndexOutOfRange, i, len(b.items))
	}
	return copyItem(b.items[i]), nil
}

// Items returns a copy of every item in bank order.
func (b *Bank) Items() []Item {
	out := make([]Item, len(b.items))
	for i, it := range b.items {
		out[i] = copyItem(it)
	}
	return out
}

func copyItem(it Item) Item {
	it.Options = append([]string(nil), it.Options...)
	return it
}
