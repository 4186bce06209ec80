package message

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const MaxContentLength = 500

var (
	ErrInvalid       = errors.New("invalid message")
	ErrNotFound      = errors.New("message not found")
	ErrNotConfigured = errors.New("remote backend not configured")
)

// UploadError is a failed media upload. Hint says what to check.
type UploadError struct {
	Reason string
	Hint   string
	Err    error
}

func (e *UploadError) Error() string {
	s := "media upload failed: " + e.Reason
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		s += " (" + e.Hint + ")"
	}
	return s
}

func (e *UploadError) Unwrap() error { return e.Err }

// Normalize trims text fields and fills the default media type.
func (d Draft) Normalize() Draft {
	d.Name = strings.TrimSpace(d.Name)
	d.Content = strings.TrimSpace(d.Content)
	d.LeadershipPrinciple = strings.TrimSpace(d.LeadershipPrinciple)
	d.MediaURL = strings.TrimSpace(d.MediaURL)
	if d.MediaURL == "" {
		d.MediaType = ""
	} else if d.MediaType == "" {
		d.MediaType = MediaImage
	}
	return d
}

func (d Draft) Validate() error {
	if err := checkName(d.Name); err != nil {
		return err
	}
	if !d.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalid, d.Category)
	}
	if err := checkContent(d.Content); err != nil {
		return err
	}
	if d.LeadershipPrinciple != "" && !validPrinciple(d.LeadershipPrinciple) {
		return fmt.Errorf("%w: unknown leadership principle %q", ErrInvalid, d.LeadershipPrinciple)
	}
	if d.MediaType != "" && !d.MediaType.Valid() {
		return fmt.Errorf("%w: media type must be image or video", ErrInvalid)
	}
	return nil
}

func (p Patch) Normalize() Patch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	p.Name = trim(p.Name)
	p.Content = trim(p.Content)
	p.LeadershipPrinciple = trim(p.LeadershipPrinciple)
	p.MediaURL = trim(p.MediaURL)
	if p.MediaURL != nil {
		switch {
		case *p.MediaURL == "":
			// no media, no type
			t := MediaType("")
			p.MediaType = &t
		case p.MediaType == nil:
			t := MediaImage
			p.MediaType = &t
		}
	}
	return p
}

func (p Patch) Validate() error {
	if p.Name != nil {
		if err := checkName(*p.Name); err != nil {
			return err
		}
	}
	if p.Category != nil && !p.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalid, *p.Category)
	}
	if p.Content != nil {
		if err := checkContent(*p.Content); err != nil {
			return err
		}
	}
	if p.LeadershipPrinciple != nil && *p.LeadershipPrinciple != "" && !validPrinciple(*p.LeadershipPrinciple) {
		return fmt.Errorf("%w: unknown leadership principle %q", ErrInvalid, *p.LeadershipPrinciple)
	}
	if p.MediaType != nil && *p.MediaType != "" && !p.MediaType.Valid() {
		return fmt.Errorf("%w: media type must be image or video", ErrInvalid)
	}
	return nil
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name required", ErrInvalid)
	}
	return nil
}

func checkContent(content string) error {
	if content == "" {
		return fmt.Errorf("%w: content required", ErrInvalid)
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return fmt.Errorf("%w: content longer than %d characters", ErrInvalid, MaxContentLength)
	}
	return nil
}
