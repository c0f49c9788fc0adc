package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	uri   = "http://localhost:11434"
	model = "llama3"
)

const scoringPrompt = `You are scoring how well an engineer fits a job role on the "technical" dimension.
Engineer: {"strengths":["Go","distributed systems"],"deal_breakers":["no on-call"]}
Role: {"title":"Backend Engineer","requirements":[{"text":"Go services","category":"essential"}]}
Respond with a single JSON object: {"score": <0-100>, "rationale": "<one sentence>"}`

var defaultClient = &http.Client{
	Transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 15 * time.Second,
			DualStack: true,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	},
}

func main() {
	ctx := context.Background()

	base, err := url.ParseRequestURI(uri)
	if err != nil {
		log.Fatal(err)
	}
	client := api.NewClient(base, defaultClient)

	if err := generate(ctx, client, model); err != nil {
		log.Fatal(err)
	}
}

// generates text from the model using the provided prompt
func generate(ctx context.Context, client *api.Client, model string) error {
	req := &api.GenerateRequest{
		Model:  model,
		Prompt: scoringPrompt,
	}

	respFunc := func(resp api.GenerateResponse) error {
		fmt.Printf("%+v", resp)
		return nil
	}

	return client.Generate(ctx, req, respFunc)
}
