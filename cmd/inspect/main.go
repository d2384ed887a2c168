// Command inspect dumps conversations from a running chatstored instance.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
)

func main() {
	var base, conv string
	flag.StringVar(&base, "addr", "http://localhost:8080", "chatstored base URL")
	flag.StringVar(&conv, "conversation", "", "dump history for one conversation id")
	flag.Parse()

	u := base + "/v1/conversations"
	if conv != "" {
		u = base + "/v1/conversations/" + conv + "/messages"
	}
	resp, err := http.Get(u)
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read failed: %v\n", err)
		os.Exit(1)
	}
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "%s: %s\n", resp.Status, body)
		os.Exit(1)
	}
	var pretty any
	if err := json.Unmarshal(body, &pretty); err == nil {
		if out, err := json.MarshalIndent(pretty, "", "  "); err == nil {
			body = out
		}
	}
	fmt.Println(string(body))
}
