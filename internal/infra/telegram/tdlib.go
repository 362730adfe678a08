package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/config"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
	"github.com/zelenin/go-tdlib/client"
)

var ErrNotAuthorized = errors.New("telegram session is not authorized, run the auth command first")

func tdlibParameters(cfg config.TDLibConfig) *client.SetTdlibParametersRequest {
	return &client.SetTdlibParametersRequest{
		UseTestDc:           cfg.UseTestDc,
		DatabaseDirectory:   cfg.DatabaseDirectory,
		FilesDirectory:      cfg.FilesDirectory,
		UseFileDatabase:     cfg.UseFileDatabase,
		UseChatInfoDatabase: cfg.UseChatInfoDatabase,
		UseMessageDatabase:  cfg.UseMessageDatabase,
		UseSecretChats:      cfg.UseSecretChats,
		ApiId:               cfg.APIID,
		ApiHash:             cfg.APIHash,
		SystemLanguageCode:  cfg.SystemLanguageCode,
		DeviceModel:         cfg.DeviceModel,
		SystemVersion:       cfg.SystemVersion,
		ApplicationVersion:  cfg.ApplicationVersion,
	}
}

// NewClient opens a TDLib client. With interactive set the phone, code and
// password prompts are served on the terminal; otherwise the stored session
// must already be authorized and ErrNotAuthorized is returned if it is not.
func NewClient(cfg config.TDLibConfig, interactive bool) (*client.Client, error) {
	_, err := client.SetLogVerbosityLevel(&client.SetLogVerbosityLevelRequest{
		NewVerbosityLevel: int32(cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("SetLogVerbosityLevel error: %s", err)
	}

	if interactive {
		authorizer := client.ClientAuthorizer(tdlibParameters(cfg))
		go client.CliInteractor(authorizer)
		tdlibClient, err := client.NewClient(authorizer)
		if err != nil {
			return nil, fmt.Errorf("NewClient error: %s", err)
		}
		return tdlibClient, nil
	}

	tdlibClient, err := client.NewClient(&storedSessionAuthorizer{params: tdlibParameters(cfg)})
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			return nil, ErrNotAuthorized
		}
		return nil, fmt.Errorf("NewClient error: %s", err)
	}
	return tdlibClient, nil
}

// storedSessionAuthorizer only accepts a session that is already logged in.
// Any prompt for credentials fails authorization, which makes TDLib close
// the half-built client instead of waiting for input.
type storedSessionAuthorizer struct {
	params *client.SetTdlibParametersRequest
}

func (a *storedSessionAuthorizer) Handle(c *client.Client, state client.AuthorizationState) error {
	switch state.AuthorizationStateType() {
	case client.TypeAuthorizationStateWaitTdlibParameters:
		_, err := c.SetTdlibParameters(a.params)
		return err
	case client.TypeAuthorizationStateReady,
		client.TypeAuthorizationStateClosing,
		client.TypeAuthorizationStateClosed,
		client.TypeAuthorizationStateLoggingOut:
		return nil
	default:
		return ErrNotAuthorized
	}
}

func (a *storedSessionAuthorizer) Close() {}

// Session holds the one long-lived TDLib client shared by the scheduler and
// the HTTP gateway. It only serializes swapping the client; calls on the
// client itself run concurrently.
type Session struct {
	cfg     config.TDLibConfig
	log     pkg.Logger
	connect func(config.TDLibConfig) (tdClient, error)

	// dialMu serializes building clients; mu only guards the pointer, so
	// callers are never blocked behind a slow connect.
	dialMu sync.Mutex
	mu     sync.RWMutex
	client tdClient
}

// tdClient is the part of *client.Client the collector uses.
type tdClient interface {
	GetMe() (*client.User, error)
	SearchPublicChat(req *client.SearchPublicChatRequest) (*client.Chat, error)
	GetChatMessageByDate(req *client.GetChatMessageByDateRequest) (*client.Message, error)
	GetChatHistory(req *client.GetChatHistoryRequest) (*client.Messages, error)
	ForwardMessages(req *client.ForwardMessagesRequest) (*client.Messages, error)
	Close() (*client.Ok, error)
}

func NewSession(cfg config.TDLibConfig, log pkg.Logger) *Session {
	return &Session{
		cfg: cfg,
		log: log,
		connect: func(cfg config.TDLibConfig) (tdClient, error) {
			c, err := NewClient(cfg, false)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

// Connect opens the client if it is not open yet and logs the account.
func (s *Session) Connect(ctx context.Context) error {
	s.dialMu.Lock()
	defer s.dialMu.Unlock()
	if c, _ := s.current(); c != nil {
		return nil
	}
	return s.dial(ctx)
}

// dial builds and verifies a client outside mu, then swaps it in. The
// caller holds dialMu.
func (s *Session) dial(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := s.connect(s.cfg)
	if err != nil {
		return err
	}
	me, err := c.GetMe()
	if err != nil {
		_, _ = c.Close()
		return fmt.Errorf("GetMe error: %w", err)
	}

	s.mu.Lock()
	s.client = c
	s.mu.Unlock()

	s.log.Info("Authorized successfully", "user_id", me.Id, "first_name", me.FirstName)
	return nil
}

// EnsureConnected probes the client and reconnects it if it has dropped.
// Calling it on a live session does nothing. While a reconnect is in
// progress other calls fail fast with ErrConnectionClosed.
func (s *Session) EnsureConnected(ctx context.Context) error {
	s.mu.RLock()
	c := s.client
	s.mu.RUnlock()

	if c != nil {
		_, err := c.GetMe()
		if err == nil {
			return nil
		}
		err = classify(err)
		if _, limited := model.AsRateLimit(err); limited {
			return nil
		}
		if !errors.Is(err, model.ErrConnectionClosed) {
			return fmt.Errorf("liveness probe: %w", err)
		}
		s.log.Warn("Telegram connection dropped, reconnecting", "err", err)
	}

	s.dialMu.Lock()
	defer s.dialMu.Unlock()

	s.mu.Lock()
	if s.client != c {
		// Someone else reconnected in the meantime.
		s.mu.Unlock()
		return nil
	}
	s.client = nil
	s.mu.Unlock()

	if c != nil {
		_, _ = c.Close()
	}
	return s.dial(ctx)
}

// current returns the live client or ErrConnectionClosed.
func (s *Session) current() (tdClient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, model.ErrConnectionClosed
	}
	return s.client, nil
}

// Me returns the authorized account.
func (s *Session) Me() (*client.User, error) {
	c, err := s.current()
	if err != nil {
		return nil, err
	}
	return c.GetMe()
}

func (s *Session) Close() error {
	s.dialMu.Lock()
	defer s.dialMu.Unlock()

	s.mu.Lock()
	c := s.client
	s.client = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	_, err := c.Close()
	if err != nil {
		return fmt.Errorf("close tdlib client: %w", err)
	}
	return nil
}
