package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Helper for seeding a running review service: posts an inspection ID list
// and prints the resulting dataset summary.

const defaultServiceURL = "http://localhost:8080"

type datasetResponse struct {
	Status  string `json:"status"`
	Dataset struct {
		ID            string   `json:"id"`
		Name          string   `json:"name"`
		InspectionIDs []string `json:"inspection_ids"`
		FailedIDs     []string `json:"failed_ids"`
		Groups        []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Published bool   `json:"published"`
		} `json:"groups"`
		Validation struct {
			Mismatches []struct {
				InspectionID string `json:"inspection_id"`
				Difference   int    `json:"difference"`
			} `json:"mismatches"`
		} `json:"validation"`
	} `json:"dataset"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run upload_dataset.go <path-to-id-list> [dataset-name]")
		fmt.Println("Example: go run upload_dataset.go inspections.csv \"March batch\"")
		os.Exit(1)
	}

	listPath := os.Args[1]
	name := strings.TrimSuffix(listPath, ".csv")
	if len(os.Args) > 2 {
		name = os.Args[2]
	}

	serviceURL := os.Getenv("REVIEW_SERVICE_URL")
	if serviceURL == "" {
		serviceURL = defaultServiceURL
	}

	authToken := os.Getenv("REVIEW_AUTH_TOKEN")
	if authToken == "" {
		fmt.Print("Enter auth token (Bearer token): ")
		fmt.Scanln(&authToken)
	}

	data, err := os.ReadFile(listPath)
	if err != nil {
		fmt.Printf("Error reading id list: %v\n", err)
		os.Exit(1)
	}
	lines := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines++
		}
	}
	fmt.Printf("✓ Read %d non-empty lines from %s\n", lines, listPath)

	fmt.Println("\nUploading dataset...")
	resp, err := upload(serviceURL, authToken, name, listPath, data)
	if err != nil {
		fmt.Printf("Upload failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("DATASET CREATED")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("  ID:          %s\n", resp.Dataset.ID)
	fmt.Printf("  Name:        %s\n", resp.Dataset.Name)
	fmt.Printf("  Inspections: %d processed, %d failed\n",
		len(resp.Dataset.InspectionIDs), len(resp.Dataset.FailedIDs))
	fmt.Printf("  Groups:      %d\n", len(resp.Dataset.Groups))

	published := 0
	for _, g := range resp.Dataset.Groups {
		if g.Published {
			published++
		}
	}
	fmt.Printf("  Published:   %d\n", published)

	if n := len(resp.Dataset.Validation.Mismatches); n > 0 {
		fmt.Println("\n" + strings.Repeat("=", 80))
		fmt.Printf("⚠ WARNING: %d ALIGNMENT MISMATCHES\n", n)
		fmt.Println(strings.Repeat("=", 80))
		for _, m := range resp.Dataset.Validation.Mismatches {
			fmt.Printf("  Inspection %s: difference %d\n", m.InspectionID, m.Difference)
		}
	}

	if len(resp.Dataset.FailedIDs) > 0 {
		fmt.Printf("\nFailed inspection IDs: %s\n", strings.Join(resp.Dataset.FailedIDs, ", "))
	}
}

func upload(serviceURL, authToken, name, fileName string, data []byte) (*datasetResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("ids", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/v1/reviews?name=%s", serviceURL, url.QueryEscape(name))
	req, err := http.NewRequest(http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+authToken)

	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed datasetResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &parsed, nil
}
