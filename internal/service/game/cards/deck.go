package cards

import (
	"errors"
	"fmt"
	"math/rand"
)

type Kind string

const (
	KindBlackjack Kind = "blackjack"
	KindPoker     Kind = "poker"
)

var ErrDeckExhausted = errors.New("deck exhausted")

// DeckExhaustedError is returned when a draw asks for more cards than remain.
type DeckExhaustedError struct {
	Requested int
	Remaining int
}

func (e *DeckExhaustedError) Error() string {
	return fmt.Sprintf("deck exhausted: requested %d, remaining %d", e.Requested, e.Remaining)
}

func (e *DeckExhaustedError) Is(target error) bool { return target == ErrDeckExhausted }

// Deck is owned by one session and is not safe for concurrent use.
type Deck struct {
	cards []Card
}

func standardTemplate() []Card {
	template := make([]Card, 0, 52)
	for _, suit := range AllSuits {
		for rank := Two; rank <= Ace; rank++ {
			template = append(template, Card{Suit: suit, Rank: rank})
		}
	}
	return template
}

// BuildDeck returns a shuffled 52-card deck. Both games use the same composition;
// blackjack tags aces through Card.Soft.
func BuildDeck(kind Kind, rng *rand.Rand) *Deck {
	cards := standardTemplate()
	if rng == nil {
		rand.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	} else {
		rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	}
	return &Deck{cards: cards}
}

// NewDeck builds a deck with the given order, top card first.
func NewDeck(cards []Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

func (d *Deck) Len() int { return len(d.cards) }

// Draw removes the first n cards. The deck is left untouched on error.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid draw count %d", n)
	}
	if n > len(d.cards) {
		return nil, &DeckExhaustedError{Requested: n, Remaining: len(d.cards)}
	}
	out := make([]Card, n)
	copy(out, d.cards[:n])
	d.cards = d.cards[n:]
	return out, nil
}

// Peek returns up to n cards from the top without removing them.
func (d *Deck) Peek(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	if n <= 0 {
		return nil
	}
	return append([]Card(nil), d.cards[:n]...)
}

func (d *Deck) DrawOne() (Card, error) {
	cs, err := d.Draw(1)
	if err != nil {
		return Card{}, err
	}
	return cs[0], nil
}
