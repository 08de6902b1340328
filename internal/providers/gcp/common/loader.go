package common

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/cloudresourcemanager/v1"
	cloudresourcemanagerv2 "google.golang.org/api/cloudresourcemanager/v2"
	"google.golang.org/api/logging/v2"
	"google.golang.org/api/monitoring/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/serviceusage/v1"
)

// DefaultGCPClientProvider is the production implementation of
// GCPClientProvider. It resolves Application Default Credentials
// (GOOGLE_APPLICATION_CREDENTIALS, gcloud user credentials, or the
// metadata server), or an explicit service account key file when
// CredentialsFile is set.
type DefaultGCPClientProvider struct {
	// CredentialsFile optionally names a service account key file that
	// takes precedence over the default credential chain.
	CredentialsFile string

	// QuotaProject optionally names the project billed for API quota.
	// Required when the credential's own project has the audited APIs
	// disabled (common with user credentials).
	QuotaProject string
}

// NewDefaultGCPClientProvider returns a provider backed by the Google auth
// libraries. Pass empty strings to use the default credential chain with
// no quota project override.
func NewDefaultGCPClientProvider(credentialsFile, quotaProject string) *DefaultGCPClientProvider {
	return &DefaultGCPClientProvider{
		CredentialsFile: credentialsFile,
		QuotaProject:    quotaProject,
	}
}

// Services implements GCPClientProvider. Every handle is built from the
// same resolved credential so one audit run presents one identity.
func (p *DefaultGCPClientProvider) Services(ctx context.Context) (*ServiceSet, error) {
	creds, err := p.resolveCredentials(ctx)
	if err != nil {
		return nil, err
	}
	opts := []option.ClientOption{option.WithCredentials(creds)}
	if p.QuotaProject != "" {
		opts = append(opts, option.WithQuotaProject(p.QuotaProject))
	}

	crm, err := cloudresourcemanager.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("resource manager service: %w", err)
	}
	crmV2, err := cloudresourcemanagerv2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("resource manager v2 service: %w", err)
	}
	loggingSvc, err := logging.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("logging service: %w", err)
	}
	monitoringSvc, err := monitoring.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("monitoring service: %w", err)
	}
	usageSvc, err := serviceusage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("service usage service: %w", err)
	}
	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}

	return &ServiceSet{
		CredentialProjectID: creds.ProjectID,
		ResourceManager:     crm,
		ResourceManagerV2:   crmV2,
		Logging:             loggingSvc,
		Monitoring:          monitoringSvc,
		ServiceUsage:        usageSvc,
		Storage:             storageClient,
	}, nil
}

// resolveCredentials loads the key file when configured, otherwise walks
// the Application Default Credentials chain.
func (p *DefaultGCPClientProvider) resolveCredentials(ctx context.Context) (*google.Credentials, error) {
	if p.CredentialsFile != "" {
		data, err := os.ReadFile(p.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file %q: %w", p.CredentialsFile, err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("parse credentials file %q: %w", p.CredentialsFile, err)
		}
		return creds, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, CloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("find default credentials: %w", err)
	}
	return creds, nil
}
