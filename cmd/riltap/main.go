package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/telephonyd/callnotifier/internal/ril"
)

func main() {
	host := flag.String("host", "127.0.0.1", "RIL bridge host")
	port := flag.Int("port", 5554, "RIL bridge port")
	secret := flag.String("secret", "", "Bridge secret")
	outDir := flag.String("outdir", "testdata/captures", "Output directory for captures")
	sanitize := flag.String("sanitize", "", "Sanitize a capture file in-place (keeps .bak)")
	flag.Parse()

	if *sanitize != "" {
		if err := sanitizeFile(*sanitize); err != nil {
			fmt.Fprintf(os.Stderr, "sanitize error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("sanitized:", *sanitize)
		return
	}

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "error: -secret is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := capture(*host, *port, *secret, *outDir); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func capture(host string, port int, secret, outDir string) error {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	fmt.Printf("connecting to %s...\n", addr)

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	filename := filepath.Join(outDir, time.Now().Format("20060102-150405")+".raw")
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer f.Close()

	fmt.Printf("writing to %s\n", filename)

	// Read the banner
	reader := bufio.NewReader(conn)
	banner, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading banner: %w", err)
	}
	f.WriteString(banner)
	fmt.Printf("banner: %s", banner)

	// Attach
	attachCmd := fmt.Sprintf("Action: Attach\r\nSecret: %s\r\n\r\n", secret)
	if _, err := conn.Write([]byte(attachCmd)); err != nil {
		return fmt.Errorf("sending attach: %w", err)
	}

	// Capture the raw bytes while summarizing each block as it streams,
	// so a tap session shows what the bridge is actually saying.
	fmt.Println("streaming events (ctrl+c to stop)...")
	p := ril.NewParser(io.TeeReader(reader, f))
	blocks := 0
	for {
		evt, ok := p.Next()
		if !ok {
			break
		}
		blocks++
		if evt.IsResponse() {
			fmt.Printf("%4d response: %s\n", blocks, evt.Get("Message"))
			continue
		}
		fmt.Printf("%4d %s\n", blocks, evt.Type())
	}
	fmt.Printf("captured %d blocks\n", blocks)

	return nil
}

var (
	ipPattern     = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	phonePattern  = regexp.MustCompile(`\b1?\d{10}\b`)
	secretPattern = regexp.MustCompile(`(?i)(Secret:\s*).+`)
	imsiPattern   = regexp.MustCompile(`(?i)(Imsi:\s*).+`)
)

func sanitizeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Create backup
	bakPath := path + ".bak"
	if err := os.WriteFile(bakPath, data, 0o644); err != nil {
		return fmt.Errorf("creating backup: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		// Redact credentials and subscriber identity
		line = secretPattern.ReplaceAllString(line, "${1}REDACTED")
		line = imsiPattern.ReplaceAllString(line, "${1}REDACTED")

		// Redact IPs (but preserve localhost)
		line = ipPattern.ReplaceAllStringFunc(line, func(ip string) string {
			if ip == "127.0.0.1" {
				return ip
			}
			return "10.0.0.1"
		})

		// Redact phone numbers in address fields
		if strings.Contains(line, "Address") || strings.Contains(line, "Number") {
			line = phonePattern.ReplaceAllString(line, "15550001234")
		}

		lines[i] = line
	}

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
}
