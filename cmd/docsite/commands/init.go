package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/config"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/theme"
)

const starterPage = `---
title: Introduction
---
# Welcome to NextNative

NextNative turns your Next.js app into native iOS and Android apps.

## Next steps

- Edit ` + "`pages/index.md`" + ` to change this page.
- Add pages next to it; folders become sidebar sections.
`

// InitCmd implements the 'init' command. Files are created next to the configuration file.
type InitCmd struct {
	Force bool `help:"Overwrite existing files"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	dir := filepath.Dir(root.Config)
	example := config.Example()

	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	themePath := filepath.Join(dir, example.Build.Theme.Config)
	if err := theme.WriteExample(themePath, i.Force); err != nil {
		return err
	}

	pagesDir := filepath.Join(dir, example.Content.PagesDir)
	index := filepath.Join(pagesDir, "index.md")
	if _, err := os.Stat(index); err != nil || i.Force {
		if err := os.MkdirAll(pagesDir, 0o755); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "create pages directory").
				WithContext("path", pagesDir).Build()
		}
		if err := os.WriteFile(index, []byte(starterPage), 0o644); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "write starter page").
				WithContext("path", index).Build()
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, example.Content.PublicDir), 0o755); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "create public directory").Build()
	}

	_, _ = fmt.Fprintf(g.Out, "Initialized docsite project: %s, %s, %s\n", root.Config, themePath, index)
	return nil
}
