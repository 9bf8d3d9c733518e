// Package mailbox talks IMAP to the reply inbox. It backs the mailbox
// diagnostics: connection checks and cleanup of already-processed messages.
package mailbox

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/opencallhq/opencall/internal/services"
)

// Session is the slice of the IMAP client the diagnostics need. The
// go-imap client satisfies it directly; tests substitute a fake.
type Session interface {
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	Search(criteria *imap.SearchCriteria) ([]uint32, error)
	Store(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error
	Expunge(ch chan uint32) error
	Logout() error
}

// Dialer opens an authenticated session against the configured mailbox.
type Dialer func(ctx context.Context, cfg services.IMAPSettings) (Session, error)

// Client runs mailbox operations over sessions produced by its dialer.
type Client struct {
	dial Dialer
}

// Status summarises the inbox after a successful connection check.
type Status struct {
	Mailbox  string `json:"mailbox"`
	Messages uint32 `json:"messages"`
	Recent   uint32 `json:"recent"`
	Unseen   uint32 `json:"unseen"`
}

// New returns a client that dials real IMAP servers.
func New() *Client {
	return &Client{dial: dialIMAP}
}

// NewWithDialer wires a custom dialer, used by tests.
func NewWithDialer(dial Dialer) *Client {
	return &Client{dial: dial}
}

func dialIMAP(ctx context.Context, cfg services.IMAPSettings) (Session, error) {
	if strings.TrimSpace(cfg.Server) == "" {
		return nil, errors.New("mailbox: server is required")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server, cfg.Port)

	var (
		c   *client.Client
		err error
	)
	switch cfg.Encryption {
	case "ssl":
		c, err = client.DialTLS(addr, &tls.Config{ServerName: cfg.Server})
	default:
		c, err = client.Dial(addr)
		if err == nil && cfg.Encryption == "tls" {
			err = c.StartTLS(&tls.Config{ServerName: cfg.Server})
		}
	}
	if err != nil {
		return nil, fmt.Errorf("mailbox: dial %s: %w", addr, err)
	}

	if err := c.Login(cfg.Username, cfg.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("mailbox: login as %s: %w", cfg.Username, err)
	}
	return c, nil
}

// TestConnection dials, authenticates and selects INBOX, returning its
// message counts.
func (c *Client) TestConnection(ctx context.Context, cfg services.IMAPSettings) (Status, error) {
	session, err := c.dial(ctx, cfg)
	if err != nil {
		return Status{}, err
	}
	defer session.Logout()

	mbox, err := session.Select("INBOX", true)
	if err != nil {
		return Status{}, fmt.Errorf("mailbox: select inbox: %w", err)
	}

	return Status{
		Mailbox:  mbox.Name,
		Messages: mbox.Messages,
		Recent:   mbox.Recent,
		Unseen:   mbox.Unseen,
	}, nil
}

// Cleanup deletes messages already marked seen and reports how many were
// removed. With delete_processed disabled it is a no-op.
func (c *Client) Cleanup(ctx context.Context, cfg services.IMAPSettings) (int, error) {
	if !cfg.DeleteProcessed {
		return 0, nil
	}

	session, err := c.dial(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer session.Logout()

	if _, err := session.Select("INBOX", false); err != nil {
		return 0, fmt.Errorf("mailbox: select inbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithFlags = []string{imap.SeenFlag}

	ids, err := session.Search(criteria)
	if err != nil {
		return 0, fmt.Errorf("mailbox: search seen: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := session.Store(seqset, item, []interface{}{imap.DeletedFlag}, nil); err != nil {
		return 0, fmt.Errorf("mailbox: flag deleted: %w", err)
	}
	if err := session.Expunge(nil); err != nil {
		return 0, fmt.Errorf("mailbox: expunge: %w", err)
	}
	return len(ids), nil
}
