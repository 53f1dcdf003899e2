package qcreative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
)

// TokenKey is the variable a credentials file must define.
const TokenKey = "QCREATIVE_TOKEN"

type remoteProgram struct {
	Name string `json:"name"`
	QASM string `json:"qasm"`
}

type remoteRequest struct {
	Backend  string          `json:"backend"`
	Shots    int             `json:"shots"`
	Programs []remoteProgram `json:"programs"`
}

type remoteResult struct {
	Counts Counts `json:"counts"`
}

type remoteResponse struct {
	Results []remoteResult `json:"results"`
	Error   string         `json:"error,omitempty"`
}

/*
Remote submits batches as OpenQASM to an HTTP execution service and expects
one counts map per program back. The credentials are part of the handle, so
two Remotes with different tokens can coexist.
*/
type Remote struct {
	name   string
	url    string
	token  string
	client *http.Client
}

/*
NewRemote builds a remote backend from its config. The token is taken from
the config, or else from the QCREATIVE_TOKEN entry of the env file; a remote
without either fails here rather than on first use.
*/
func NewRemote(cfg RemoteConfig) (*Remote, error) {
	if cfg.URL == "" {
		return nil, errors.Wrap(ErrConfiguration, "remote backend needs a url")
	}

	token := cfg.Token
	if token == "" && cfg.EnvFile != "" {
		env, err := godotenv.Read(cfg.EnvFile)
		if err != nil {
			return nil, errors.Wrapf(ErrConfiguration, "reading credentials from %s: %v", cfg.EnvFile, err)
		}
		token = env[TokenKey]
	}

	if token == "" {
		return nil, errors.Wrapf(ErrConfiguration, "remote backend %s has no credentials", cfg.Name)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Remote{
		name:   cfg.Name,
		url:    cfg.URL,
		token:  token,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (r *Remote) Name() string {
	return r.name
}

func (r *Remote) Execute(ctx context.Context, programs []*Program, shots int) ([]Counts, error) {
	if err := validateBatch(programs, shots); err != nil {
		return nil, err
	}

	req := remoteRequest{Backend: r.name, Shots: shots}
	for _, p := range programs {
		req.Programs = append(req.Programs, remoteProgram{Name: p.Name, QASM: p.QASM()})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(ErrBackend, err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(ErrBackend, err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.token))

	errnie.Info("submitting %d programs to %s", len(programs), r.url)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(ErrBackend, "%s unavailable: %v", r.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(ErrBackend, "%s: reading response: %v", r.name, err)
	}

	var decoded remoteResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, errors.Wrapf(ErrBackend, "%s: status %d, undecodable response: %v", r.name, resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || decoded.Error != "" {
		return nil, errors.Wrapf(ErrBackend, "%s rejected the batch: status %d: %s", r.name, resp.StatusCode, decoded.Error)
	}

	results := make([]Counts, len(decoded.Results))
	for i, res := range decoded.Results {
		results[i] = res.Counts
	}

	if err := CheckCounts(programs, results, shots); err != nil {
		return nil, err
	}

	return results, nil
}
