package paapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// AWS Signature Version 4 request signing, scoped to the
// ProductAdvertisingAPI service.

const (
	isoTimestamp = "20060102T150405Z"
	dateStamp    = "20060102"
	service      = "ProductAdvertisingAPI"
	algorithm    = "AWS4-HMAC-SHA256"
)

func (c *Client) sign(payload, target string, ts time.Time) map[string]string {
	date := ts.Format(dateStamp)
	amzDate := ts.Format(isoTimestamp)
	amzTarget := "com.amazon.paapi5.v1.ProductAdvertisingAPIv1." + target

	canonicalURI := "/paapi5/" + target
	canonicalHeaders := "content-encoding:amz-1.0\n" +
		"content-type:application/json; charset=utf-8\n" +
		"host:" + c.settings.Host + "\n" +
		"x-amz-date:" + amzDate + "\n" +
		"x-amz-target:" + amzTarget + "\n"
	signedHeaders := "content-encoding;content-type;host;x-amz-date;x-amz-target"

	canonicalRequest := "POST\n" + canonicalURI + "\n\n" +
		canonicalHeaders + "\n" + signedHeaders + "\n" + sha256Hex(payload)

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", date, c.settings.Region, service)
	stringToSign := algorithm + "\n" + amzDate + "\n" + credentialScope + "\n" +
		sha256Hex(canonicalRequest)

	key := signatureKey(c.settings.SecretKey, date, c.settings.Region)
	signature := hex.EncodeToString(hmacSHA256(key, stringToSign))

	authorization := fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, c.settings.AccessKey, credentialScope, signedHeaders, signature)

	return map[string]string{
		"Content-Encoding": "amz-1.0",
		"Content-Type":     "application/json; charset=utf-8",
		"Host":             c.settings.Host,
		"X-Amz-Date":       amzDate,
		"X-Amz-Target":     amzTarget,
		"Authorization":    authorization,
	}
}

func signatureKey(secret, date, region string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), date)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, "aws4_request")
}

func hmacSHA256(key []byte, msg string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
