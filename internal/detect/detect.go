// Package detect infers Google Cloud environment information (project,
// location, service identity, task handler host) from environment variables
// set by Cloud Run and App Engine, falling back to the GCE metadata server.
// Every lookup returns the empty string when the value cannot be determined;
// detection is best-effort and never fails hard.
package detect

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/compute/metadata"
)

// metadataTimeout bounds each metadata-server round trip. The metadata server
// is link-local; anything slower means we are not on GCP.
const metadataTimeout = 2 * time.Second

// IsCloudRun reports whether the process is running on Cloud Run.
// Cloud Run always sets K_SERVICE.
func IsCloudRun() bool {
	_, ok := os.LookupEnv("K_SERVICE")
	return ok
}

// IsAppEngine reports whether the process is running on App Engine.
// App Engine always sets GAE_APPLICATION.
func IsAppEngine() bool {
	_, ok := os.LookupEnv("GAE_APPLICATION")
	return ok
}

// Detector resolves GCP environment values, consulting the metadata server
// when environment variables are not enough.
type Detector struct {
	client *metadata.Client
}

// New creates a Detector backed by the standard metadata client with a
// bounded request timeout.
func New() *Detector {
	return NewWithClient(metadata.NewClient(&http.Client{Timeout: metadataTimeout}))
}

// NewWithClient creates a Detector using the given metadata client.
func NewWithClient(client *metadata.Client) *Detector {
	return &Detector{client: client}
}

// Project detects the GCP project ID.
//
// Priority:
//  1. GOOGLE_CLOUD_PROJECT environment variable
//  2. GAE_APPLICATION environment variable (format "region~project-id")
//  3. Metadata server
func (d *Detector) Project(ctx context.Context) string {
	if project := os.Getenv("GOOGLE_CLOUD_PROJECT"); project != "" {
		return project
	}

	if gaeApp := os.Getenv("GAE_APPLICATION"); gaeApp != "" {
		parts := strings.Split(gaeApp, "~")
		return parts[len(parts)-1]
	}

	return d.get(ctx, "project/project-id")
}

// Location detects the GCP location (region).
//
// Priority:
//  1. CLOUD_TASKS_LOCATION environment variable (explicit)
//  2. Cloud Run: the CLOUD_RUN_REGION environment variable
//  3. Metadata server zone, reduced to its region
func (d *Detector) Location(ctx context.Context) string {
	if location := os.Getenv("CLOUD_TASKS_LOCATION"); location != "" {
		return location
	}

	if IsCloudRun() {
		if region := os.Getenv("CLOUD_RUN_REGION"); region != "" {
			return region
		}
	}

	// Zone format is "projects/PROJECT_NUM/zones/REGION-ZONE";
	// drop the trailing zone letter (asia-northeast1-a -> asia-northeast1).
	zone := d.get(ctx, "instance/zone")
	if zone == "" {
		return ""
	}
	zoneParts := strings.Split(zone, "/")
	zoneName := zoneParts[len(zoneParts)-1]
	segments := strings.Split(zoneName, "-")
	return strings.Join(segments[:len(segments)-1], "-")
}

// DefaultServiceAccount detects the default service account email address.
// There is no environment-variable shortcut; this is metadata-server only.
func (d *Detector) DefaultServiceAccount(ctx context.Context) string {
	return d.get(ctx, "instance/service-accounts/default/email")
}

// TaskHandlerHost detects the externally reachable base URL that Cloud Tasks
// should deliver task requests to.
//
// Priority:
//  1. SERVICE_URL environment variable (explicit)
//  2. Cloud Run: URL composed from K_SERVICE / K_REVISION
//  3. App Engine: URL composed from GAE_VERSION
//
// The Cloud Run form includes the revision when known
// (https://REVISION---SERVICE-PROJECT.REGION.run.app) so that traffic-split
// blue/green deployments deliver tasks back to the revision that enqueued them.
func (d *Detector) TaskHandlerHost(ctx context.Context) string {
	if serviceURL := os.Getenv("SERVICE_URL"); serviceURL != "" {
		return serviceURL
	}

	if IsCloudRun() {
		service := os.Getenv("K_SERVICE")
		revision := os.Getenv("K_REVISION")
		project := d.Project(ctx)
		region := os.Getenv("CLOUD_RUN_REGION")

		if service != "" && project != "" && region != "" {
			if revision != "" {
				return fmt.Sprintf("https://%s---%s-%s.%s.run.app", revision, service, project, region)
			}
			return fmt.Sprintf("https://%s-%s.%s.run.app", service, project, region)
		}
	}

	if IsAppEngine() {
		version := os.Getenv("GAE_VERSION")
		project := d.Project(ctx)

		if version != "" && project != "" {
			return fmt.Sprintf("https://%s-dot-%s.appspot.com", version, project)
		}
	}

	return ""
}

// get fetches a value from the metadata server, treating every failure
// (not on GCP, timeout, 404) as "undetected".
func (d *Detector) get(ctx context.Context, path string) string {
	value, err := d.client.GetWithContext(ctx, path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}
