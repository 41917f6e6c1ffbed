package labelcheck

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
)

// HandleS3Event runs the checker for one ObjectCreated notification. Only the
// first record is handled; the storage trigger delivers one record per upload.
// The return value matters only for direct invokes and tests.
func (c *Checker) HandleS3Event(ctx context.Context, event events.S3Event) (Result, error) {
	if len(event.Records) == 0 {
		return Result{}, fmt.Errorf("s3 event contains no records")
	}

	record := event.Records[0].S3

	// Object keys arrive URL-encoded in S3 notifications.
	key, err := url.QueryUnescape(record.Object.Key)
	if err != nil {
		return Result{}, fmt.Errorf("failed to decode object key %q: %w", record.Object.Key, err)
	}

	return c.Check(ctx, record.Bucket.Name, key)
}
