package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const sesCharset = "UTF-8"

// SESConfig configures the Amazon SES implementation.
type SESConfig struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	// From is the default sender when Message.From is empty.
	From string
	// ConfigurationSet is attached to every message when set.
	ConfigurationSet string
}

// SES is a Mail implementation backed by Amazon Simple Email Service.
type SES struct {
	client           *ses.Client
	defaultFrom      string
	configurationSet string
}

// NewSES loads AWS configuration and constructs an SES mail sender. Static
// credentials are used when AccessKey and SecretKey are set; otherwise the
// default AWS credential chain applies.
func NewSES(ctx context.Context, cfg SESConfig) (*SES, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("mail: load aws config: %w", err)
	}

	client := ses.NewFromConfig(awsCfg, func(o *ses.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &SES{client: client, defaultFrom: cfg.From, configurationSet: cfg.ConfigurationSet}, nil
}

// Send delivers a message through SES.
func (s *SES) Send(ctx context.Context, msg Message) error {
	msg, err := msg.resolve(s.defaultFrom)
	if err != nil {
		return err
	}

	if _, err := s.client.SendEmail(ctx, s.input(msg)); err != nil {
		return fmt.Errorf("ses: %w", err)
	}

	return nil
}

func (s *SES) input(msg Message) *ses.SendEmailInput {
	body := &types.Body{}
	if msg.TextBody != "" {
		body.Text = &types.Content{Data: aws.String(msg.TextBody), Charset: aws.String(sesCharset)}
	}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String(sesCharset)}
	}

	in := &ses.SendEmailInput{
		Source: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses:  msg.To,
			CcAddresses:  msg.Cc,
			BccAddresses: msg.Bcc,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(sesCharset)},
			Body:    body,
		},
	}
	if s.configurationSet != "" {
		in.ConfigurationSetName = aws.String(s.configurationSet)
	}

	return in
}

// Close implements io.Closer.
func (s *SES) Close() error {
	return nil
}
