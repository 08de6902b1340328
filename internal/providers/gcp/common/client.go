package common

import (
	"context"

	"cloud.google.com/go/storage"
	"google.golang.org/api/cloudresourcemanager/v1"
	cloudresourcemanagerv2 "google.golang.org/api/cloudresourcemanager/v2"
	"google.golang.org/api/logging/v2"
	"google.golang.org/api/monitoring/v3"
	"google.golang.org/api/serviceusage/v1"
)

// CloudPlatformScope is the OAuth scope requested for every API handle.
// All audited APIs accept it, so one credential serves the whole run.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ServiceSet holds initialised Google API service handles sharing a single
// resolved credential. It is the unit passed from the provider layer into
// the inventory collectors.
type ServiceSet struct {
	// CredentialProjectID is the project associated with the active
	// credential, when the credential carries one. Informational only;
	// the audit never scopes itself to this project.
	CredentialProjectID string

	ResourceManager   *cloudresourcemanager.Service
	ResourceManagerV2 *cloudresourcemanagerv2.Service
	Logging           *logging.Service
	Monitoring        *monitoring.Service
	ServiceUsage      *serviceusage.Service
	Storage           *storage.Client
}

// GCPClientProvider resolves credentials and constructs API service handles.
// It is the sole entry point for GCP credential management across the
// entire provider layer.
//
// Implementations must use Application Default Credentials or an explicit
// key file via the Google auth libraries. Never shell out to gcloud.
type GCPClientProvider interface {
	// Services resolves credentials and returns a fully populated
	// ServiceSet. The context governs credential resolution and any
	// token exchange it triggers.
	Services(ctx context.Context) (*ServiceSet, error)
}
