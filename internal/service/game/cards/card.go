package cards

import (
	"fmt"
	"strings"
)

// Card format: Rank + Suit (e.g., "As", "Td", "2c").
// Ranks: 2, 3, 4, 5, 6, 7, 8, 9, T, J, Q, K, A
// Suits: s (spades), h (hearts), d (diamonds), c (clubs)

type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

var AllSuits = [4]Suit{Clubs, Diamonds, Hearts, Spades}

func (s Suit) Letter() byte {
	switch s {
	case Clubs:
		return 'c'
	case Diamonds:
		return 'd'
	case Hearts:
		return 'h'
	case Spades:
		return 's'
	}
	return '?'
}

func (s Suit) Symbol() string {
	switch s {
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	}
	return "?"
}

// Rank is the poker ordinal; the ace is high (14).
type Rank uint8

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

func (r Rank) Letter() string {
	switch r {
	case Ten:
		return "T"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	}
	if r >= Two && r <= Nine {
		return string(rune('0' + r))
	}
	return "?"
}

func (r Rank) Valid() bool { return r >= Two && r <= Ace }

// Card is an immutable value; a physical card lives in exactly one of deck, hand or table.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// Code is the two-letter wire form, "As".
func (c Card) Code() string {
	return c.Rank.Letter() + string(c.Suit.Letter())
}

// String renders a chat-friendly face, "A♠" / "10♥".
func (c Card) String() string {
	face := c.Rank.Letter()
	if c.Rank == Ten {
		face = "10"
	}
	return face + c.Suit.Symbol()
}

// Soft reports whether the card takes a contextual value in blackjack.
func (c Card) Soft() bool { return c.Rank == Ace }

func ParseCard(code string) (Card, error) {
	code = strings.TrimSpace(code)
	if len(code) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", code)
	}
	rankPart, suitPart := code[:len(code)-1], code[len(code)-1]

	var rank Rank
	switch strings.ToUpper(rankPart) {
	case "A":
		rank = Ace
	case "K":
		rank = King
	case "Q":
		rank = Queen
	case "J":
		rank = Jack
	case "T", "10":
		rank = Ten
	default:
		if len(rankPart) != 1 || rankPart[0] < '2' || rankPart[0] > '9' {
			return Card{}, fmt.Errorf("invalid rank in card %q", code)
		}
		rank = Rank(rankPart[0] - '0')
	}

	var suit Suit
	switch suitPart {
	case 'c', 'C':
		suit = Clubs
	case 'd', 'D':
		suit = Diamonds
	case 'h', 'H':
		suit = Hearts
	case 's', 'S':
		suit = Spades
	default:
		return Card{}, fmt.Errorf("invalid suit in card %q", code)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// MustParseCards parses space separated codes and panics on error; meant for fixtures.
func MustParseCards(codes string) []Card {
	fields := strings.Fields(codes)
	out := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}

func Codes(cs []Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Code()
	}
	return out
}

func Faces(cs []Card) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
