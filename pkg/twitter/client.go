// Package twitter posts, replies to and deletes posts on X on behalf of the
// user. Every request is OAuth 1.0a signed with credentials fetched from the
// secret provider at the start of each action, and runs under a bounded
// linear-backoff retry policy.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dghubble/oauth1"
	gotwitter "github.com/g8rswimmer/go-twitter/v2"
	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"github.com/EternisAI/enchanted-assistant/pkg/helpers"
	"github.com/EternisAI/enchanted-assistant/pkg/secrets"
)

const (
	DefaultBaseURL = "https://api.twitter.com"

	// MaxTweetLength is the platform limit, in characters.
	MaxTweetLength = 280

	// RecentTweetsWindow is how many of the user's latest posts a
	// delete-by-text request searches.
	RecentTweetsWindow = 10
)

type Action string

const (
	ActionPost   Action = "post"
	ActionDelete Action = "delete"
	ActionReply  Action = "reply"
)

// ParseAction validates the action argument.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionPost, ActionDelete, ActionReply:
		return a, true
	}
	return "", false
}

// Request is one post_tweet invocation.
type Request struct {
	Action  string
	Text    string
	TweetID string
}

// Tweet is a post as returned by the timeline endpoint.
type Tweet struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Option func(*Client)

// WithBaseURL points the client at another API host, e.g. a test server.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets the transport the signing client wraps.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetryPolicy sets the total attempt count and the base backoff delay.
func WithRetryPolicy(maxAttempts int, delay time.Duration) Option {
	return func(c *Client) {
		if maxAttempts >= 1 {
			c.maxRetries = maxAttempts
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// WithRequestsPerSecond paces outbound requests. Zero disables pacing.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

type Client struct {
	secrets    secrets.Provider
	secretName string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter
	logger     *log.Logger
}

func New(provider secrets.Provider, secretName string, logger *log.Logger, opts ...Option) *Client {
	c := &Client{
		secrets:    provider,
		secretName: secretName,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		timeout:    30 * time.Second,
		maxRetries: 3,
		retryDelay: 2 * time.Second,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// signatureOnly satisfies go-twitter's Authorizer; the OAuth 1.0a transport
// underneath signs every request instead.
type signatureOnly struct{}

func (signatureOnly) Add(*http.Request) {}

// responseRecorder keeps the body of the last response it carried so the
// platform's payload can be handed back verbatim.
type responseRecorder struct {
	next http.RoundTripper

	mu   sync.Mutex
	body []byte
}

func (r *responseRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.next.RoundTrip(req)
	if err != nil || resp.Body == nil {
		return resp, err
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.body = body
	r.mu.Unlock()

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func (r *responseRecorder) last() json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return json.RawMessage(bytes.Clone(r.body))
}

// session is an API client signing with one fetched credential bundle.
type session struct {
	*gotwitter.Client
	raw *responseRecorder
}

// session fetches credentials and returns an API client signing with them.
func (c *Client) session(ctx context.Context) (*session, error) {
	creds, err := c.secrets.GetSecret(ctx, c.secretName)
	if err != nil {
		return nil, err
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
	signed := config.Client(context.WithValue(ctx, oauth1.HTTPClient, c.httpClient), token)
	signed.Timeout = c.timeout

	recorder := &responseRecorder{next: signed.Transport}
	signed.Transport = recorder

	return &session{
		Client: &gotwitter.Client{
			Authorizer: signatureOnly{},
			Client:     signed,
			Host:       c.baseURL,
		},
		raw: recorder,
	}, nil
}

// invalidator is implemented by providers that cache credentials.
type invalidator interface {
	Invalidate(name string)
}

// forgetRejectedCredentials drops cached credentials the platform refused so
// the next action fetches them again.
func (c *Client) forgetRejectedCredentials(err error) {
	var serr *StatusError
	if !errors.As(err, &serr) {
		return
	}
	if serr.StatusCode != http.StatusUnauthorized && serr.StatusCode != http.StatusForbidden {
		return
	}
	if cache, ok := c.secrets.(invalidator); ok {
		c.logger.Warn("Credentials rejected, dropping cached copy", "secret", c.secretName, "status", serr.StatusCode)
		cache.Invalidate(c.secretName)
	}
}

// Execute runs one action and renders the outcome as text: the platform's
// JSON payload on success, an explanatory message otherwise.
func (c *Client) Execute(ctx context.Context, req Request) string {
	action, ok := ParseAction(req.Action)
	if !ok {
		return "Error: action must be 'post', 'delete', or 'reply'."
	}

	var (
		payload json.RawMessage
		err     error
	)
	switch action {
	case ActionPost:
		payload, err = c.Post(ctx, req.Text)
	case ActionReply:
		payload, err = c.Reply(ctx, req.Text, req.TweetID)
	case ActionDelete:
		payload, err = c.Delete(ctx, req.TweetID, req.Text)
	}
	if err != nil {
		c.forgetRejectedCredentials(err)
		return describe(err)
	}
	return string(payload)
}

// describe renders an action error the way the agent expects to read it.
func describe(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var rerr *ResolutionError
	if errors.As(err, &rerr) {
		return rerr.Error()
	}
	var serr *StepError
	if !errors.As(err, &serr) {
		return fmt.Sprintf("Error: %v", err)
	}
	switch serr.Step {
	case StepPost:
		return fmt.Sprintf("Error posting tweet: %v", serr.Err)
	case StepReply:
		return fmt.Sprintf("Error replying to tweet: %v", serr.Err)
	case StepUserLookup:
		return fmt.Sprintf("Error getting user info: %v", serr.Err)
	case StepTimeline:
		return fmt.Sprintf("Error getting tweets: %v", serr.Err)
	case StepDelete:
		return fmt.Sprintf("Error deleting tweet: %v", serr.Err)
	case StepCredentials:
		return fmt.Sprintf("Error retrieving secrets: %v", serr.Err)
	default:
		return fmt.Sprintf("Error: %v", serr.Err)
	}
}

// Post publishes text, truncated to MaxTweetLength.
func (c *Client) Post(ctx context.Context, text string) (json.RawMessage, error) {
	if text == "" {
		return nil, &ValidationError{Message: "Error: tweet_text is required to post a tweet."}
	}
	api, err := c.session(ctx)
	if err != nil {
		return nil, &StepError{Step: StepCredentials, Err: err}
	}
	return c.createTweet(ctx, api, StepPost, gotwitter.CreateTweetRequest{
		Text: helpers.TruncateRunes(text, MaxTweetLength),
	})
}

// Reply publishes text as a reply to tweetID.
func (c *Client) Reply(ctx context.Context, text, tweetID string) (json.RawMessage, error) {
	if text == "" || tweetID == "" {
		return nil, &ValidationError{Message: "Error: tweet_text and tweet_id are required to reply to a tweet."}
	}
	api, err := c.session(ctx)
	if err != nil {
		return nil, &StepError{Step: StepCredentials, Err: err}
	}
	return c.createTweet(ctx, api, StepReply, gotwitter.CreateTweetRequest{
		Text:  helpers.TruncateRunes(text, MaxTweetLength),
		Reply: &gotwitter.CreateTweetReply{InReplyToTweetID: tweetID},
	})
}

func (c *Client) createTweet(ctx context.Context, api *session, step Step, req gotwitter.CreateTweetRequest) (json.RawMessage, error) {
	var resp *gotwitter.CreateTweetResponse
	err := c.do(ctx, string(step), func(ctx context.Context) error {
		var err error
		resp, err = api.CreateTweet(ctx, req)
		return err
	})
	if err != nil {
		return nil, &StepError{Step: step, Err: err}
	}

	var tweetID string
	if resp != nil && resp.Tweet != nil {
		tweetID = resp.Tweet.ID
	}
	c.logger.Info("Tweet created", "step", step, "tweet_id", tweetID)
	return api.raw.last(), nil
}

// Delete removes tweetID, or, when tweetID is empty, the most recent of the
// user's last RecentTweetsWindow posts whose text contains text
// (case-insensitive).
func (c *Client) Delete(ctx context.Context, tweetID, text string) (json.RawMessage, error) {
	if tweetID == "" && text == "" {
		return nil, &ValidationError{Message: "Error: either tweet_id or tweet_text is required to delete a tweet."}
	}
	api, err := c.session(ctx)
	if err != nil {
		return nil, &StepError{Step: StepCredentials, Err: err}
	}

	if tweetID == "" {
		tweetID, err = c.resolve(ctx, api, text)
		if err != nil {
			return nil, err
		}
	}

	var resp *gotwitter.DeleteTweetResponse
	err = c.do(ctx, string(StepDelete), func(ctx context.Context) error {
		var err error
		resp, err = api.DeleteTweet(ctx, tweetID)
		return err
	})
	if err != nil {
		return nil, &StepError{Step: StepDelete, Err: err}
	}

	deleted := resp != nil && resp.Tweet != nil && resp.Tweet.Deleted
	c.logger.Info("Tweet deleted", "tweet_id", tweetID, "deleted", deleted)
	return api.raw.last(), nil
}

// resolve turns a text hint into the id of a recent post of the user.
func (c *Client) resolve(ctx context.Context, api *session, text string) (string, error) {
	userID, err := c.authenticatedUserID(ctx, api)
	if err != nil {
		return "", &StepError{Step: StepUserLookup, Err: err}
	}

	tweets, err := c.recentTweets(ctx, api, userID)
	if err != nil {
		return "", &StepError{Step: StepTimeline, Err: err}
	}

	match, ok := FindTweet(tweets, text)
	if !ok {
		c.logger.Info("No recent tweet matched", "searched", len(tweets))
		return "", &ResolutionError{Text: text}
	}
	c.logger.Debug("Resolved tweet", "tweet_id", match.ID)
	return match.ID, nil
}

// FindTweet returns the first tweet, in the given order, whose text contains
// needle case-insensitively.
func FindTweet(tweets []Tweet, needle string) (Tweet, bool) {
	needle = strings.ToLower(needle)
	return lo.Find(tweets, func(t Tweet) bool {
		return strings.Contains(strings.ToLower(t.Text), needle)
	})
}

func (c *Client) authenticatedUserID(ctx context.Context, api *session) (string, error) {
	var resp *gotwitter.UserLookupResponse
	err := c.do(ctx, string(StepUserLookup), func(ctx context.Context) error {
		var err error
		resp, err = api.AuthUserLookup(ctx, gotwitter.UserLookupOpts{})
		return err
	})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Raw == nil || len(resp.Raw.Users) == 0 || resp.Raw.Users[0] == nil {
		return "", errors.New("user lookup returned no user")
	}
	return resp.Raw.Users[0].ID, nil
}

func (c *Client) recentTweets(ctx context.Context, api *session, userID string) ([]Tweet, error) {
	var resp *gotwitter.UserTweetTimelineResponse
	err := c.do(ctx, string(StepTimeline), func(ctx context.Context) error {
		var err error
		resp, err = api.UserTweetTimeline(ctx, userID, gotwitter.UserTweetTimelineOpts{
			MaxResults: RecentTweetsWindow,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Raw == nil {
		return nil, nil
	}

	tweets := lo.FilterMap(resp.Raw.Tweets, func(t *gotwitter.TweetObj, _ int) (Tweet, bool) {
		if t == nil {
			return Tweet{}, false
		}
		return Tweet{ID: t.ID, Text: t.Text}, true
	})
	return tweets, nil
}
