package composer

import (
	"errors"
	"fmt"

	"github.com/fpang/gif-maker/internal/gifapi"
	"github.com/rs/zerolog/log"
)

// ErrGIFInProgress is returned by CreateGIF while another GIF request is
// outstanding. No request is sent and nothing is reported to the user.
var ErrGIFInProgress = errors.New("gif creation already in progress")

// ValidationError is a precondition failure detected before any request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotificationKind distinguishes success from error notifications.
type NotificationKind int

const (
	NotifySuccess NotificationKind = iota
	NotifyError
)

// Notification is a transient user-facing message.
type Notification struct {
	Kind    NotificationKind
	Title   string
	Message string
}

func (c *Controller) notify(n Notification) {
	if c.opts.OnNotify != nil {
		c.opts.OnNotify(n)
	}
}

func (c *Controller) notifySuccess(msg string) {
	c.notify(Notification{Kind: NotifySuccess, Title: "Success", Message: msg})
}

// notifyError reports err under a short context prefix. Validation errors
// are shown verbatim.
func (c *Controller) notifyError(prefix string, err error) {
	c.notify(Notification{Kind: NotifyError, Title: "Error", Message: Describe(prefix, err)})
}

// reject reports a validation failure and returns it.
func (c *Controller) reject(err error) error {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		log.Debug().Str("reason", vErr.Message).Msg("Operation rejected locally")
		c.notify(Notification{Kind: NotifyError, Title: "Error", Message: vErr.Message})
	}
	return err
}

// Describe renders err as a user-facing message.
func Describe(prefix string, err error) string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	var reqErr *gifapi.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("%s: %s", prefix, reqErr.Reason())
	}
	return fmt.Sprintf("%s: %v", prefix, err)
}
