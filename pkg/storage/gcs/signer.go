package gcs

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// SignedURL returns a V2-signed PUT URL for a direct client upload.
func (c *Client) SignedURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	if contentType == "" {
		return "", errors.New("contentType is required")
	}
	return c.signURL("PUT", bucket, object, contentType, expires)
}

// SignedReadURL returns a V2-signed GET URL for a time-limited download.
func (c *Client) SignedReadURL(bucket, object string, expires time.Duration) (string, error) {
	return c.signURL("GET", bucket, object, "", expires)
}

func (c *Client) signURL(method, bucket, object, contentType string, expires time.Duration) (string, error) {
	if c == nil || c.serviceAccount == nil || c.serviceAccount.privateKey == nil {
		return "", errors.New("gcs signer requires service account credentials")
	}
	if bucket == "" {
		bucket = c.defaultBucket
	}
	if bucket == "" {
		return "", errors.New("bucket is required")
	}
	if object == "" {
		return "", errors.New("object is required")
	}
	if expires <= 0 {
		return "", errors.New("expires must be positive")
	}

	expiration := time.Now().Add(expires).Unix()
	expireParam := strconv.FormatInt(expiration, 10)

	// V2 string-to-sign: METHOD \n Content-MD5 \n Content-Type \n Expires \n resource
	data := []byte(method + "\n\n" + contentType + "\n" + expireParam + "\n/" + bucket + "/" + object)
	hash := sha256.Sum256(data)
	signature, err := rsa.SignPKCS1v15(rand.Reader, c.serviceAccount.privateKey, crypto.SHA256, hash[:])
	if err != nil {
		return "", fmt.Errorf("signing url: %w", err)
	}

	return fmt.Sprintf(
		"https://storage.googleapis.com/%s/%s?GoogleAccessId=%s&Expires=%s&Signature=%s",
		bucket,
		object,
		url.QueryEscape(c.serviceAccount.clientEmail),
		expireParam,
		url.QueryEscape(base64.StdEncoding.EncodeToString(signature)),
	), nil
}
