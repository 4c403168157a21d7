package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"
)

type ReporterConfig struct {
	URL    string `json:"url"`
	Secret string `json:"secret"`
}

// Reporter posts signed scan reports to a configured webhook endpoint.
type Reporter struct {
	config *ReporterConfig
}

type reportMessage struct {
	Timestamp string `json:"timestamp"`
	Sign      string `json:"sign"`
	Title     string `json:"title"`
	Text      string `json:"text"`
}

func NewReporter() *Reporter {
	config := &ReporterConfig{}
	viper.UnmarshalKey("webhook.report", config)
	return &Reporter{config: config}
}

func (r *Reporter) GenSign(timestamp int64) (string, error) {
	stringToSign := fmt.Sprintf("%v", timestamp) + "\n" + r.config.Secret
	h := hmac.New(sha256.New, []byte(stringToSign))
	signature := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return signature, nil
}

func (r *Reporter) Send(title, text string) error {
	timestamp := time.Now().Unix()
	sign, err := r.GenSign(timestamp)
	if err != nil {
		return fmt.Errorf("failed to generate sign: %v", err)
	}

	msg := reportMessage{
		Timestamp: fmt.Sprintf("%v", timestamp),
		Sign:      sign,
		Title:     title,
		Text:      text,
	}
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook message: %v", err)
	}

	resp, err := http.Post(r.config.URL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send webhook: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned non-200 status: %d", resp.StatusCode)
	}
	return nil
}
