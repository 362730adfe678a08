package fetcher

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
)

var (
	reRetryAfter = regexp.MustCompile(`(?i)retry after (\d+)`)
	reFloodWait  = regexp.MustCompile(`FLOOD_WAIT_(\d+)`)
)

// classify maps a TDLib error ("400 USERNAME_NOT_OCCUPIED",
// "429 Too Many Requests: retry after 35", ...) onto the model taxonomy.
// Unknown errors are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	text := err.Error()

	if m := reRetryAfter.FindStringSubmatch(text); m != nil {
		return rateLimit(m[1], err)
	}
	if m := reFloodWait.FindStringSubmatch(text); m != nil {
		return rateLimit(m[1], err)
	}

	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "USERNAME_NOT_OCCUPIED"),
		strings.Contains(upper, "CHAT NOT FOUND"),
		strings.HasPrefix(upper, "404"):
		return fmt.Errorf("%w: %s", model.ErrNotFound, text)
	case strings.Contains(upper, "USERNAME_INVALID"),
		strings.Contains(upper, "CHANNEL_INVALID"),
		strings.Contains(upper, "PEER_ID_INVALID"):
		return fmt.Errorf("%w: %s", model.ErrInvalidIdentifier, text)
	case strings.Contains(upper, "CHANNEL_PRIVATE"),
		strings.Contains(upper, "CHAT_FORBIDDEN"),
		strings.Contains(upper, "HAVE NO ACCESS"),
		strings.Contains(upper, "CHAT_ADMIN_REQUIRED"):
		return fmt.Errorf("%w: %s", model.ErrInaccessible, text)
	case strings.Contains(upper, "CLIENT IS CLOSED"),
		strings.Contains(upper, "RESPONSE CATCHING TIMEOUT"):
		return fmt.Errorf("%w: %s", model.ErrConnectionClosed, text)
	}
	return err
}

func rateLimit(seconds string, err error) error {
	n, convErr := strconv.Atoi(seconds)
	if convErr != nil {
		n = 0
	}
	return &model.RateLimitError{Wait: time.Duration(n) * time.Second, Err: err}
}
