package banner

import "fmt"

const banner = `
 ██████╗██╗  ██╗ █████╗ ████████╗███████╗████████╗ ██████╗ ██████╗ ███████╗
██╔════╝██║  ██║██╔══██╗╚══██╔══╝██╔════╝╚══██╔══╝██╔═══██╗██╔══██╗██╔════╝
██║     ███████║███████║   ██║   ███████╗   ██║   ██║   ██║██████╔╝█████╗
██║     ██╔══██║██╔══██║   ██║   ╚════██║   ██║   ██║   ██║██╔══██╗██╔══╝
╚██████╗██║  ██║██║  ██║   ██║   ███████║   ██║   ╚██████╔╝██║  ██║███████╗
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ╚══════╝   ╚═╝    ╚═════╝ ╚═╝  ╚═╝╚══════╝
`

// Print writes the startup banner with listen address and version.
func Print(addr, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/events/{category} - Enqueue a protocol event")
	fmt.Println("POST /v1/messages - Enqueue a raw message batch")
	fmt.Println("GET  /v1/conversations - List conversations")
	fmt.Println("GET  /v1/conversations/{id}/messages?limit=<n> - Conversation history")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/v1/messages' -d '[{\"key\":{\"remoteJid\":\"111@s.whatsapp.net\",\"id\":\"ABC\"},\"message\":{\"conversation\":\"hello\"}}]'\n", addr)
	fmt.Printf("curl 'http://localhost%s/v1/conversations'\n", addr)
	fmt.Println()
}
