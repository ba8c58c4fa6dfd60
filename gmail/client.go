package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const defaultUser = "me"

// AuthOptions describes where OAuth material lives and how to talk to the
// user when a new token has to be obtained.
type AuthOptions struct {
	CredentialsFile string
	TokenFile       string
	User            string

	// Prompt supplies the authorization code during the console flow.
	Prompt io.Reader
	// Out receives the authorization URL.
	Out io.Writer
}

// Client lists and retrieves messages of one mailbox through the Gmail API.
type Client struct {
	srv    *gmail.Service
	user   string
	logger *log.Logger
}

// NewClient authenticates with the read-only Gmail scope and returns a
// Client for opts.User.
func NewClient(ctx context.Context, opts AuthOptions, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	b, err := os.ReadFile(opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	httpClient, err := getOAuthClient(ctx, oauthConfig, opts, logger)
	if err != nil {
		return nil, err
	}
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return NewServiceClient(srv, opts.User, logger), nil
}

// NewServiceClient wraps an already configured Gmail service.
func NewServiceClient(srv *gmail.Service, user string, logger *log.Logger) *Client {
	if user == "" {
		user = defaultUser
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{srv: srv, user: user, logger: logger}
}

// ListMessages returns one page of message identifiers. The page token is
// only sent when non-empty.
func (c *Client) ListMessages(ctx context.Context, pageToken string, maxResults int64) ([]string, string, error) {
	call := c.srv.Users.Messages.List(c.user).MaxResults(maxResults)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("list messages: %w", err)
	}
	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	c.logger.Debug("listed messages", "count", len(ids), "next", resp.NextPageToken != "")
	return ids, resp.NextPageToken, nil
}

// GetMessage retrieves the full message with the given identifier.
func (c *Client) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	msg, err := c.srv.Users.Messages.Get(c.user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	return msg, nil
}

func getOAuthClient(ctx context.Context, config *oauth2.Config, opts AuthOptions, logger *log.Logger) (*http.Client, error) {
	tok, err := tokenFromFile(opts.TokenFile)
	if err != nil {
		logger.Info("no cached token, starting authorization", "token_file", opts.TokenFile)
		tok, err = getTokenFromWeb(ctx, config, opts)
		if err != nil {
			return nil, err
		}
		if err := saveToken(opts.TokenFile, tok); err != nil {
			return nil, err
		}
		logger.Info("saved credential file", "path", opts.TokenFile)
	}
	return config.Client(ctx, tok), nil
}

func getTokenFromWeb(ctx context.Context, config *oauth2.Config, opts AuthOptions) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	in := opts.Prompt
	if in == nil {
		in = os.Stdin
	}
	fmt.Fprintf(out, "Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)

	authCode, err := readAuthCode(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}
	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// readAuthCode reads one code from in, giving up when ctx is done. The
// read itself cannot be interrupted and finishes in the background.
func readAuthCode(ctx context.Context, in io.Reader) (string, error) {
	type result struct {
		code string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		var code string
		_, err := fmt.Fscan(in, &code)
		ch <- result{code, err}
	}()
	select {
	case r := <-ch:
		return r.code, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to save oauth token: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("unable to encode oauth token: %w", err)
	}
	return nil
}
