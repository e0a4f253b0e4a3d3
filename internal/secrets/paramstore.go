// Package secrets resolves provider credentials from AWS SSM Parameter Store.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"github.com/capitalize-ai/companion-chat/pkg/logger"
)

// ssmAPI is the part of *ssm.Client used here.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ParamStore reads decrypted parameters under a common prefix.
type ParamStore struct {
	api    ssmAPI
	prefix string
}

// New creates a ParamStore over an SSM API.
func New(api ssmAPI, prefix string) (*ParamStore, error) {
	if api == nil {
		return nil, errors.New("secrets: api must not be nil")
	}
	return &ParamStore{api: api, prefix: strings.TrimSuffix(prefix, "/")}, nil
}

// NewFromEnvironment builds a ParamStore from the default AWS credential chain.
func NewFromEnvironment(ctx context.Context, prefix string) (*ParamStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("secrets: load aws config: %w", err)
	}
	return New(ssm.NewFromConfig(cfg), prefix)
}

// Get returns the value of <prefix>/<name>.
func (p *ParamStore) Get(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("secrets: name is required")
	}
	full := p.prefix + "/" + name

	out, err := p.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(full),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("secrets: get parameter %q: %w", full, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("secrets: parameter %q has no value", full)
	}
	return *out.Parameter.Value, nil
}

// Fill resolves every empty credential in targets, keyed by parameter name.
// Missing parameters are logged and left empty; the affected provider then
// reports itself unavailable.
func (p *ParamStore) Fill(ctx context.Context, log *logger.Logger, targets map[string]*string) {
	for name, dst := range targets {
		if dst == nil || *dst != "" {
			continue
		}
		v, err := p.Get(ctx, name)
		if err != nil {
			log.Warn("Credential not resolved", zap.String("parameter", name), zap.Error(err))
			continue
		}
		*dst = v
	}
}
