package session

import "fmt"

// PendingOperation tells what the next free-text message of a user means.
type PendingOperation int

const (
	// Idle means no operation waits for user input.
	Idle PendingOperation = iota
	// AwaitingSize means the next text is parsed as the image size.
	AwaitingSize
	// AwaitingSeed means the next text becomes the image seed.
	AwaitingSeed
	// AwaitingStyleChoice means the style menu is shown and a callback is expected.
	AwaitingStyleChoice
)

const (
	// DefaultImageSize is assigned to new sessions.
	DefaultImageSize = 128
	// DefaultImageSeed is assigned to new sessions and used for empty seed input.
	DefaultImageSeed = "random"
)

// String returns the log-friendly name of the operation.
func (p PendingOperation) String() string {
	switch p {
	case Idle:
		return "idle"
	case AwaitingSize:
		return "awaiting_size"
	case AwaitingSeed:
		return "awaiting_seed"
	case AwaitingStyleChoice:
		return "awaiting_style_choice"
	}
	return fmt.Sprintf("pending(%d)", int(p))
}

// Valid reports whether p is one of the defined operations.
func (p PendingOperation) Valid() bool {
	return p >= Idle && p <= AwaitingStyleChoice
}

// Session is the per-user record. Values returned by a Store are snapshots;
// changes go through Store.Update.
type Session struct {
	UserID    int64
	ImageSize int
	ImageSeed string
	Pending   PendingOperation
}

// New returns a session with default settings for the user.
func New(userID int64) Session {
	return Session{
		UserID:    userID,
		ImageSize: DefaultImageSize,
		ImageSeed: DefaultImageSeed,
		Pending:   Idle,
	}
}

func (s Session) validate() error {
	if s.ImageSize <= 0 {
		return fmt.Errorf("%w: image size %d", ErrInvalidSession, s.ImageSize)
	}
	if !s.Pending.Valid() {
		return fmt.Errorf("%w: pending operation %d", ErrInvalidSession, int(s.Pending))
	}
	return nil
}
