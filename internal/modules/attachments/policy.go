package attachments

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultMaxBytes is the default per-file ceiling (5 MB)
const DefaultMaxBytes int64 = 5 << 20

// DefaultAllowedTypes are the screenshot formats the journal API accepts
var DefaultAllowedTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// ErrAttachmentRejected matches every Rejection via errors.Is
var ErrAttachmentRejected = errors.New("attachment rejected")

// RejectReason says why a file was not staged
type RejectReason string

const (
	ReasonUnsupportedType RejectReason = "unsupported_type"
	ReasonTooLarge        RejectReason = "too_large"
	// ReasonMissing is used when a file can no longer be read from disk
	ReasonMissing RejectReason = "missing"
)

// Rejection reports one file that failed validation
type Rejection struct {
	File   string
	Reason RejectReason
	Detail string
}

// Error implements error
func (r Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.File, r.Detail)
}

// Is makes errors.Is(r, ErrAttachmentRejected) true
func (r Rejection) Is(target error) bool {
	return target == ErrAttachmentRejected
}

// Policy decides which files may be staged
type Policy struct {
	AllowedTypes []string
	MaxBytes     int64
}

// DefaultPolicy returns the png/jpeg/webp/gif, 5 MB policy
func DefaultPolicy() Policy {
	return Policy{
		AllowedTypes: append([]string(nil), DefaultAllowedTypes...),
		MaxBytes:     DefaultMaxBytes,
	}
}

// Check returns nil when f may be staged
func (p Policy) Check(f File) *Rejection {
	if !p.allows(f.MediaType()) {
		mediaType := f.MediaType()
		if mediaType == "" {
			mediaType = "unknown"
		}
		return &Rejection{
			File:   f.FileName(),
			Reason: ReasonUnsupportedType,
			Detail: fmt.Sprintf("unsupported media type %s (allowed: %s)", mediaType, p.allowedList()),
		}
	}

	limit := p.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if f.Size() > limit {
		return &Rejection{
			File:   f.FileName(),
			Reason: ReasonTooLarge,
			Detail: fmt.Sprintf("file is %s, maximum is %s", humanize.IBytes(uint64(f.Size())), humanize.IBytes(uint64(limit))),
		}
	}

	return nil
}

func (p Policy) allows(mediaType string) bool {
	allowed := p.AllowedTypes
	if len(allowed) == 0 {
		allowed = DefaultAllowedTypes
	}
	mediaType = normalizeMediaType(mediaType)
	for _, t := range allowed {
		if normalizeMediaType(t) == mediaType {
			return true
		}
	}
	return false
}

func (p Policy) allowedList() string {
	allowed := p.AllowedTypes
	if len(allowed) == 0 {
		allowed = DefaultAllowedTypes
	}
	names := make([]string, 0, len(allowed))
	for _, t := range allowed {
		_, sub, found := strings.Cut(normalizeMediaType(t), "/")
		if !found {
			sub = t
		}
		names = append(names, sub)
	}
	return strings.Join(names, ", ")
}
