package hafas

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
)

// PaginationContext lets a caller fetch the next or previous page of a trip search.
//
// It is immutable. Once a newer context for the same search has been issued the older
// one must not be used; the backend answers stale contexts with Status_SessionExpired.
type PaginationContext struct {
	Ident string
	SeqNr string
	Ld    *string

	// CanQueryMore is false when no further pages exist, for example when the only
	// result is a single walk.
	CanQueryMore bool
}

type scrollDirection int

const (
	scrollLater   scrollDirection = 1
	scrollEarlier scrollDirection = 2
)

// Later returns the request parameters for the page after this one.
func (c *PaginationContext) Later() url.Values {
	return c.params(scrollLater)
}

// Earlier returns the request parameters for the page before this one.
func (c *PaginationContext) Earlier() url.Values {
	return c.params(scrollEarlier)
}

func (c *PaginationContext) params(dir scrollDirection) url.Values {
	v := url.Values{}
	v.Set("ident", c.Ident)
	v.Set("seqnr", c.SeqNr)
	if c.Ld != nil {
		v.Set("ld", *c.Ld)
	}
	v.Set("REQ0HafasScrollDir", strconv.Itoa(int(dir)))
	return v
}

// Token serializes the context into an opaque URL-safe string.
func (c *PaginationContext) Token() string {
	v := url.Values{}
	v.Set("i", c.Ident)
	v.Set("s", c.SeqNr)
	if c.Ld != nil {
		v.Set("l", *c.Ld)
	}
	if c.CanQueryMore {
		v.Set("m", "1")
	}
	return base64.RawURLEncoding.EncodeToString([]byte(v.Encode()))
}

// ParseToken is the inverse of Token.
func ParseToken(token string) (*PaginationContext, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token: %w", err)
	}
	v, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token: %w", err)
	}
	c := &PaginationContext{
		Ident:        v.Get("i"),
		SeqNr:        v.Get("s"),
		CanQueryMore: v.Get("m") == "1",
	}
	if c.Ident == "" {
		return nil, fmt.Errorf("invalid pagination token: no ident")
	}
	if n, err := strconv.Atoi(c.SeqNr); err != nil || n <= 0 {
		return nil, fmt.Errorf("invalid pagination token: sequence number %q", c.SeqNr)
	}
	if v.Has("l") {
		ld := v.Get("l")
		c.Ld = &ld
	}
	return c, nil
}

// canQueryMore is false when the only trip consists of a single individual leg.
func canQueryMore(trips []Trip) bool {
	if len(trips) != 1 || len(trips[0].Legs) != 1 {
		return true
	}
	switch trips[0].Legs[0].(type) {
	case *IndividualLeg:
		return false
	case *PublicLeg:
		return true
	}
	return true
}
