package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/veilledger/veil/models"
)

var log = logging.MustGetLogger("CLIENT")

const defaultTimeout = time.Second * 30

// ErrTransientNetwork is returned when a request failed in a way that
// is expected to succeed on retry. The client already retried once
// automatically before surfacing it; callers may retry the identical
// call again later.
var ErrTransientNetwork = errors.New("transient network failure")

// Client talks to the ledger's submission and query server over HTTP.
// Submission is idempotent per transaction id so a retried submit of
// an accepted transaction returns the prior acceptance.
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient returns a Client for the ledger server at the given
// endpoint, e.g. http://localhost:8669.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   &http.Client{Timeout: defaultTimeout},
	}
}

// SetHTTPClient replaces the underlying http client. Used in testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.client = client
}

// LedgerState returns the opaque token identifying the ledger's
// current state.
func (c *Client) LedgerState(ctx context.Context) (string, error) {
	var state struct {
		State string `json:"state"`
	}
	err := c.getJSON(ctx, c.endpoint+"/ledger_state", &state)
	if err != nil {
		return "", err
	}
	return state.State, nil
}

// Submit sends a finalized transaction to the ledger. A transiently
// failing attempt (connection error or server-side 5xx) is retried
// once before ErrTransientNetwork is surfaced. A structured rejection
// is not an error; it is returned in the result.
func (c *Client) Submit(ctx context.Context, tx *models.FinalizedTransaction) (*models.SubmissionResult, error) {
	payload, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.endpoint+"/submit_transaction", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req.WithContext(ctx), nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		// Terminal ledger-level rejection.
		reason, _ := ioutil.ReadAll(resp.Body)
		return &models.SubmissionResult{
			Accepted: false,
			Reason:   strings.TrimSpace(string(reason)),
		}, nil
	}

	var result models.SubmissionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decode submission response")
	}
	return &result, nil
}

// TxnStatus returns the ledger's view of a previously accepted
// transaction.
func (c *Client) TxnStatus(ctx context.Context, txID string) (*models.TxnStatus, error) {
	var status models.TxnStatus
	err := c.getJSON(ctx, fmt.Sprintf("%s/txn_status/%s", c.endpoint, txID), &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		return req.WithContext(ctx), nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := ioutil.ReadAll(resp.Body)
		return errors.Errorf("ledger server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// doWithRetry performs the request built by makeReq, retrying exactly
// once if the first attempt fails transiently. A fresh request is
// built per attempt so POST bodies can be resent. Anything past the
// retry budget surfaces as ErrTransientNetwork.
func (c *Client) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			log.Warningf("Retrying ledger request after transient failure: %s", lastErr)
			select {
			case <-time.After(time.Millisecond * 250):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := makeReq()
		if err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = errors.Errorf("ledger server returned %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}
	return nil, errors.Wrap(ErrTransientNetwork, lastErr.Error())
}
