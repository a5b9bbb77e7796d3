package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"profilevault/internal/domain/asset"
	"profilevault/internal/domain/user"
)

type outputFormat string

const (
	outputTable outputFormat = "table"
	outputJSON  outputFormat = "json"
	outputYAML  outputFormat = "yaml"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case outputTable, outputJSON, outputYAML:
		return f, nil
	case "":
		return outputTable, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
}

// writeStructured handles json and yaml; it reports false for table output.
func writeStructured(w io.Writer, f outputFormat, payload any) (bool, error) {
	switch f {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(payload)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(payload); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

func writeVersionTable(w io.Writer, a asset.View) error {
	fmt.Fprintf(w, "asset %s (%s), current %s, %s\n", a.ID, a.OriginalName, a.PrimaryKey, humanize.Bytes(uint64(a.SizeBytes)))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSIZE\tTYPE\tCREATED\tBY\tKEY")
	for _, v := range a.Versions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			v.VersionNumber,
			humanize.Bytes(uint64(v.SizeBytes)),
			v.MimeType,
			formatTime(v.CreatedAt),
			dash(v.CreatedBy),
			v.PrimaryKey,
		)
	}
	return tw.Flush()
}

func writeDivergenceTable(w io.Writer, div []asset.Divergence) error {
	if len(div) == 0 {
		_, err := fmt.Fprintln(w, "all assets consistent")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ASSET\tOWNER\tROLE\tMISSING KEY")
	for _, d := range div {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.AssetID, d.OwnerID, d.Role, d.Key)
	}
	return tw.Flush()
}

func writeUserTable(w io.Writer, u user.View) error {
	lines := []string{
		fmt.Sprintf("id: %s", u.ID),
		fmt.Sprintf("username: %s", u.Username),
		fmt.Sprintf("name: %s", u.FullName),
		fmt.Sprintf("email: %s", u.Email),
		fmt.Sprintf("role: %s", dash(u.RoleID)),
		fmt.Sprintf("position: %s", dash(u.PositionID)),
		fmt.Sprintf("active: %t", u.Status),
		fmt.Sprintf("profile image: %s", dash(u.ProfileImgID)),
		fmt.Sprintf("created: %s", formatTime(u.CreatedAt)),
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339) + " (" + humanize.Time(t) + ")"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
