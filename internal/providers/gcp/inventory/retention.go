package gcpinventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// ProbeBucketRetention implements Accessor. The probe text reproduces the
// gsutil "retention get" presentation, because the retention rule
// classifies output by the substrings that presentation contains:
// "has no Retention Policy" and "Retention Policy (UNLOCKED)".
//
// A bucket that does not exist yields the gsutil not-found line, which
// contains neither substring, so the rule skips it silently. Any other
// storage error is a query fault.
func (a *DefaultAccessor) ProbeBucketRetention(ctx context.Context, bucketRef string) (string, error) {
	attrs, err := a.clients.Buckets.BucketAttrs(ctx, bucketNameFromRef(bucketRef))
	if errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Sprintf("BucketNotFoundException: 404 %s bucket does not exist.", bucketRef), nil
	}
	if err != nil {
		return "", &QueryError{Op: "probe retention of " + bucketRef, Err: err}
	}
	return renderRetention(bucketRef, attrs.RetentionPolicy), nil
}

// bucketNameFromRef strips the gs:// scheme and any trailing slash,
// leaving the bare bucket name the storage client expects.
func bucketNameFromRef(bucketRef string) string {
	name := strings.TrimPrefix(bucketRef, "gs://")
	return strings.TrimSuffix(name, "/")
}

// renderRetention formats bucket retention state the way gsutil prints it.
func renderRetention(bucketRef string, rp *storage.RetentionPolicy) string {
	if rp == nil {
		return fmt.Sprintf("%s/ has no Retention Policy.", strings.TrimSuffix(bucketRef, "/"))
	}
	state := "UNLOCKED"
	if rp.IsLocked {
		state = "LOCKED"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Retention Policy (%s):\n", state)
	fmt.Fprintf(&b, "  Duration: %s\n", formatRetentionDuration(rp.RetentionPeriod))
	if !rp.EffectiveTime.IsZero() {
		fmt.Fprintf(&b, "  Effective Time: %s\n", rp.EffectiveTime.UTC().Format("Mon, 02 Jan 2006 15:04:05 MST"))
	}
	return b.String()
}

// formatRetentionDuration renders whole days as "N Day(s)" and everything
// else as seconds, matching the gsutil presentation.
func formatRetentionDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs%86400 == 0 && secs != 0 {
		return fmt.Sprintf("%d Day(s)", secs/86400)
	}
	return fmt.Sprintf("%d Second(s)", secs)
}
