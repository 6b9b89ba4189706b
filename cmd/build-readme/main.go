package main

import (
	"bytes"
	"log"
	"os"

	"cyborgian/internal/commands"
	"cyborgian/internal/config"
	"cyborgian/internal/docs"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		log.Fatal(err)
	}

	tmpl, err := os.ReadFile("README.md.tmpl")
	if err != nil {
		log.Fatal(err)
	}

	var out bytes.Buffer
	if err := docs.Render(&out, string(tmpl), commands.Descriptors(commands.Deps{Config: cfg}), cfg.Separator()); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile("README.md", out.Bytes(), 0o644); err != nil {
		log.Fatal(err)
	}
}
