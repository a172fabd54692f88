package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// GetParameterAPI is the subset of the SSM client used by SSMProvider.
type GetParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMProvider reads SecureString parameters from AWS Systems Manager
// Parameter Store. Secret names are appended to the configured path, so
// "git-token" under "/anymouse/prod/" reads /anymouse/prod/git-token.
type SSMProvider struct {
	client GetParameterAPI
	path   string
}

// NewSSMProvider builds a provider using the default AWS credential chain.
func NewSSMProvider(ctx context.Context, path, region, endpoint string) (*SSMProvider, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	var clientOpts []func(*ssm.Options)
	if endpoint != "" {
		clientOpts = append(clientOpts, func(o *ssm.Options) {
			o.EndpointResolver = ssm.EndpointResolverFromURL(endpoint)
		})
	}
	return NewSSMProviderWithClient(ssm.NewFromConfig(cfg, clientOpts...), path), nil
}

// NewSSMProviderWithClient builds a provider around an existing client.
func NewSSMProviderWithClient(client GetParameterAPI, path string) *SSMProvider {
	if path != "" && !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return &SSMProvider{client: client, path: path}
}

// GetSecret implements Provider.
func (p *SSMProvider) GetSecret(ctx context.Context, name string) (string, error) {
	param := p.path + name
	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(param),
		WithDecryption: aws.Bool(true),
	})
	var notFound *types.ParameterNotFound
	if errors.As(err, &notFound) {
		return "", fmt.Errorf("%w: %s (parameter %s)", ErrNotFound, name, param)
	}
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", param, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("%w: %s (parameter %s has no value)", ErrNotFound, name, param)
	}
	return *out.Parameter.Value, nil
}

// Name implements Provider.
func (p *SSMProvider) Name() string { return "ssm" }
