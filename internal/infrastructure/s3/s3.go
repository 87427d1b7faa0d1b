package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"archivo-storage-api/config"
	"archivo-storage-api/internal/application/ports"
)

const opTimeout = 30 * time.Second

type Client struct {
	logger         *zap.Logger
	cli            *s3.Client
	presign        *s3.PresignClient
	endpoint       string
	publicEndpoint string
	buckets        []string
	publicBucket   string
	defaultPutTTL  time.Duration
	defaultGetTTL  time.Duration
}

func New(ctx context.Context, logger *zap.Logger, cfg config.S3, st config.Storage, buckets []string) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		// MinIO and friends want endpoint/bucket, not bucket.endpoint
		o.UsePathStyle = true
	})

	return &Client{
		logger:         logger,
		cli:            cli,
		presign:        s3.NewPresignClient(cli),
		endpoint:       cfg.Endpoint,
		publicEndpoint: cfg.PublicEndpoint,
		buckets:        buckets,
		publicBucket:   cfg.BucketAvatars,
		defaultPutTTL:  st.UploadURLTTL,
		defaultGetTTL:  st.DownloadURLTTL,
	}, nil
}

// EnsureBuckets creates every managed bucket that does not exist yet and
// applies the public-read policy to the avatars bucket. Failures are logged
// but never fatal so the service can still boot against a temporarily
// unavailable store.
func (c *Client) EnsureBuckets(ctx context.Context) {
	for _, bucket := range c.buckets {
		_, err := c.cli.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
		if err == nil {
			continue
		}

		if _, err = c.cli.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
			c.logger.Warn("bucket creation failed",
				zap.String("bucket", bucket),
				zap.Error(err),
			)
			continue
		}
		c.logger.Info("bucket created", zap.String("bucket", bucket))
	}

	if err := c.applyPublicReadPolicy(ctx, c.publicBucket); err != nil {
		c.logger.Warn("public-read policy failed",
			zap.String("bucket", c.publicBucket),
			zap.Error(err),
		)
	}
}

func (c *Client) applyPublicReadPolicy(ctx context.Context, bucket string) error {
	policy := fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"AWS": ["*"]},
      "Action": ["s3:GetObject"],
      "Resource": ["arn:aws:s3:::%s/*"]
    }
  ]
}`, bucket)

	_, err := c.cli.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(bucket),
		Policy: aws.String(policy),
	})
	return err
}

func (c *Client) PresignPut(ctx context.Context, bucket, key, contentType string, size int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = c.defaultPutTTL
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	req, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign put %s/%s: %w", bucket, key, err)
	}

	return c.RewritePublicURL(req.URL), nil
}

func (c *Client) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = c.defaultGetTTL
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign get %s/%s: %w", bucket, key, err)
	}

	return c.RewritePublicURL(req.URL), nil
}

func (c *Client) Put(ctx context.Context, bucket, key, contentType string, body io.Reader) error {
	uploader := manager.NewUploader(c.cli)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, bucket, key string) ([]byte, string, error) {
	resp, err := c.cli.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("get %s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s/%s: %w", bucket, key, err)
	}

	mimeType := aws.ToString(resp.ContentType)
	if mimeType == "" {
		probe := content
		if len(probe) > 512 {
			probe = probe[:512]
		}
		mimeType = http.DetectContentType(bytes.NewBuffer(probe).Bytes())
	}

	return content, mimeType, nil
}

// Stat reports size and checksum of an object, or a nil info when the object
// does not exist.
func (c *Client) Stat(ctx context.Context, bucket, key string) (*ports.ObjectInfo, error) {
	resp, err := c.cli.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s/%s: %w", bucket, key, err)
	}

	return &ports.ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(resp.ContentLength),
		ETag:         strings.Trim(aws.ToString(resp.ETag), `"`),
		ContentType:  aws.ToString(resp.ContentType),
		LastModified: aws.ToTime(resp.LastModified),
	}, nil
}

func (c *Client) Remove(ctx context.Context, bucket, key string) error {
	_, err := c.cli.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("remove %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (c *Client) RemoveMany(ctx context.Context, bucket string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make([]types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		objects[i] = types.ObjectIdentifier{Key: aws.String(k)}
	}

	_, err := c.cli.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("remove many %s: %w", bucket, err)
	}
	return nil
}

func (c *Client) Copy(ctx context.Context, bucket, srcKey, dstKey string) error {
	_, err := c.cli.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(bucket),
		CopySource: aws.String(bucket + "/" + srcKey),
		Key:        aws.String(dstKey),
	})
	if err != nil {
		return fmt.Errorf("copy %s/%s -> %s: %w", bucket, srcKey, dstKey, err)
	}
	return nil
}

func (c *Client) List(ctx context.Context, bucket, prefix string) ([]ports.ObjectInfo, error) {
	var out []ports.ObjectInfo

	paginator := s3.NewListObjectsV2Paginator(c.cli, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			out = append(out, ports.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				ETag:         strings.Trim(aws.ToString(obj.ETag), `"`),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	return out, nil
}

func (c *Client) BucketSize(ctx context.Context, bucket string) (int64, int64, error) {
	objects, err := c.List(ctx, bucket, "")
	if err != nil {
		return 0, 0, err
	}

	var total int64
	for _, obj := range objects {
		total += obj.Size
	}
	return total, int64(len(objects)), nil
}

// RewritePublicURL swaps the internal store endpoint for the public-facing
// one in presigned URLs. Plain string substitution.
func (c *Client) RewritePublicURL(u string) string {
	if c.publicEndpoint == "" || c.endpoint == "" {
		return u
	}
	return strings.Replace(u, c.endpoint, c.publicEndpoint, 1)
}
