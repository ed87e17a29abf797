package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{} // No timeout, completion calls can run long
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func dataField(body []byte, key string) string {
	var envelope map[string]interface{}
	json.Unmarshal(body, &envelope)
	if data, ok := envelope["data"].(map[string]interface{}); ok {
		if value, ok := data[key].(string); ok {
			return value
		}
	}
	return ""
}

const sampleText = `New employees accrue 1.5 vacation days per month during the first year, for a total of 18 days. Unused vacation days carry over up to a maximum of 10 days.

Remote work is allowed up to three days per week. Employees must be reachable during core hours, 10:00 to 15:00 local time.

Sick leave does not count against vacation days. A doctor's note is required after three consecutive sick days.`

func main() {
	color.Cyan("🚀 Starting Document Q&A API Test\n")

	userToken := os.Getenv("DEV_TOKEN")
	if userToken == "" {
		color.Red("DEV_TOKEN not set; export a bearer token for a test user first")
		os.Exit(1)
	}

	// 1. Upload a document
	color.Yellow("\n[DOCS] 1. Create Document")
	resp, body, err := sendRequest("POST", "/documents", userToken, map[string]interface{}{
		"title": "Employee Handbook",
		"text":  sampleText,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var createResp map[string]interface{}
	json.Unmarshal(body, &createResp)
	prettyPrint(createResp)

	documentID := dataField(body, "id")
	if documentID == "" {
		color.Red("No document id in response")
		os.Exit(1)
	}

	// 2. Poll until ingestion finishes
	color.Yellow("\n[DOCS] 2. Wait for READY status")
	status := ""
	for i := 0; i < 30; i++ {
		time.Sleep(2 * time.Second)
		_, body, err = sendRequest("GET", "/documents/"+documentID, userToken, nil)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		status = dataField(body, "status")
		fmt.Printf("  status: %s\n", status)
		if status == "READY" || status == "FAILED" {
			break
		}
	}
	if status != "READY" {
		color.Red("Document never became READY (last status: %s)", status)
		os.Exit(1)
	}
	color.Green("Document is READY")

	// 3. Ask a grounded question (new session)
	color.Yellow("\n[CHAT] 3. Query: vacation days")
	resp, body, err = sendRequest("POST", "/chat/query", userToken, map[string]interface{}{
		"query": "How many vacation days do new employees get?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var queryResp map[string]interface{}
	json.Unmarshal(body, &queryResp)
	prettyPrint(queryResp)

	sessionID := dataField(body, "session_id")
	if sessionID == "" {
		color.Red("No session id in response")
		os.Exit(1)
	}

	// 4. Follow-up in the same session
	color.Yellow("\n[CHAT] 4. Follow-up in session %s", sessionID)
	resp, body, err = sendRequest("POST", "/chat/query", userToken, map[string]interface{}{
		"session_id": sessionID,
		"query":      "And do unused days carry over?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	json.Unmarshal(body, &queryResp)
	prettyPrint(queryResp)

	// 5. Session history
	color.Yellow("\n[CHAT] 5. List session messages")
	resp, body, err = sendRequest("GET", "/chat/sessions/"+sessionID+"/messages", userToken, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var historyResp map[string]interface{}
	json.Unmarshal(body, &historyResp)
	prettyPrint(historyResp)

	// 6. Document utility: summarize
	color.Yellow("\n[DOCS] 6. Run SUMMARIZE utility")
	resp, body, err = sendRequest("POST", "/documents/"+documentID+"/utility", userToken, map[string]interface{}{
		"action": "SUMMARIZE",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var utilityResp map[string]interface{}
	json.Unmarshal(body, &utilityResp)
	prettyPrint(utilityResp)

	color.Cyan("\n✅ All API checks done")
}
