package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/jacentio/nestedset"
)

const exportURLExpiry = 15 * time.Minute

// s3Config returns AWS config for S3
func s3Config() (aws.Config, error) {
	region := os.Getenv("S3_REGION")
	if region == "" {
		region = "ap-southeast-1" // default Singapore
	}

	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")

	if accessKey == "" || secretKey == "" {
		return aws.Config{}, fmt.Errorf("S3_ACCESS_KEY or S3_SECRET_KEY missing")
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return cfg, nil
}

// uploadSnapshot stores a JSON document in S3 and returns a presigned
// GET URL for it.
func uploadSnapshot(objectName string, body []byte, expiry time.Duration) (string, error) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		return "", fmt.Errorf("S3_BUCKET not set in environment")
	}

	cfg, err := s3Config()
	if err != nil {
		return "", err
	}

	client := s3.NewFromConfig(cfg)

	_, err = client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(objectName),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("S3 upload failed: %w", err)
	}

	presigner := s3.NewPresignClient(client)
	presigned, err := presigner.PresignGetObject(context.TODO(),
		&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(objectName),
		},
		func(po *s3.PresignOptions) {
			po.Expires = expiry
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign S3 URL: %w", err)
	}

	return presigned.URL, nil
}

// POST /api/admin/categories/export
//
// Serializes the whole taxonomy, root included, and parks it in S3 so
// an operator can pull the snapshot without database access.
func AdminExportHandler(w http.ResponseWriter, r *http.Request) {
	var rows []*Category
	if err := DB.Scopes(Categories.Ordered()).Find(&rows).Error; err != nil {
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Failed to load categories"})
		return
	}
	tree, err := nestedset.BuildTree(rows)
	if err != nil {
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Failed to assemble tree"})
		return
	}
	body, err := json.Marshal(tree)
	if err != nil {
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Failed to serialize tree"})
		return
	}

	objectName := fmt.Sprintf("exports/taxonomy-%s-%s.json",
		time.Now().Format("20060102-150405"), uuid.New().String()[:8])

	url, err := uploadSnapshot(objectName, body, exportURLExpiry)
	if err != nil {
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Export upload failed"})
		return
	}

	WriteJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Message: "Export created",
		Data: map[string]interface{}{
			"object": objectName,
			"url":    url,
			"nodes":  len(rows),
		},
	})
}
