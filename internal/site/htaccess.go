package site

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/aidanlsb/vpub/internal/atomicfile"
	"github.com/aidanlsb/vpub/internal/config"
)

const (
	defaultAuthName     = "Restricted Content"
	defaultAuthUserFile = "/etc/apache2/.htpasswd"
)

var htaccessTemplate = template.Must(template.New("htaccess").Parse(`{{if .Auth -}}
AuthType Basic
AuthName "{{.AuthName}}"
AuthUserFile {{.AuthUserFile}}
Require valid-user

{{end -}}
RewriteEngine On
{{if .Redirects}}
# Redirect old links to new links from renames
{{range .Redirects -}}
RewriteRule "{{.From}}"  "{{.To}}" [R]
{{end -}}
{{end}}
# Check if the .html version of the requested URI exists
RewriteCond %{REQUEST_FILENAME}.html -f
# Rewrite requests to the .html version
RewriteRule ^(.+)$ $1.html [L]
`))

// RenderHtaccess renders the Apache access-control file for the built site.
func RenderHtaccess(cfg config.HtaccessConfig) (string, error) {
	data := struct {
		Auth         bool
		AuthName     string
		AuthUserFile string
		Redirects    []config.Redirect
	}{
		Auth:         !cfg.DisableAuth,
		AuthName:     cfg.AuthName,
		AuthUserFile: cfg.AuthUserFile,
		Redirects:    cfg.Redirects,
	}
	if data.AuthName == "" {
		data.AuthName = defaultAuthName
	}
	if data.AuthUserFile == "" {
		data.AuthUserFile = defaultAuthUserFile
	}

	var buf bytes.Buffer
	if err := htaccessTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render .htaccess: %w", err)
	}
	return buf.String(), nil
}

// WriteHtaccess writes .htaccess into publicRoot and returns its path.
func WriteHtaccess(publicRoot string, cfg config.HtaccessConfig) (string, error) {
	if publicRoot == "" {
		return "", ErrNoSiteDir
	}
	content, err := RenderHtaccess(cfg)
	if err != nil {
		return "", err
	}
	path := filepath.Join(publicRoot, ".htaccess")
	if err := atomicfile.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
