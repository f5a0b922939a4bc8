package controller

import (
	"bytes"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"ccmock.dev/pkg/ccmock/internal/domain"
	"ccmock.dev/pkg/ccmock/internal/domain/backends"
)

// RenderDeclarations writes one table per report listing the declarations
// that would be mocked, followed by a summary line.
func RenderDeclarations(w io.Writer, reports []domain.CollectReport) error {
	var out bytes.Buffer

	total := 0

	for _, report := range reports {
		_, _ = fmt.Fprintf(&out, "%s\n", report.Source)
		out.WriteString(renderDeclarationTable(report))
		out.WriteString("\n")

		if report.Result != nil {
			total += len(report.Result.Decls)
		}
	}

	_, _ = fmt.Fprintf(&out, "%d declaration(s) in %d file(s)\n", total, len(reports))

	if _, err := w.Write(out.Bytes()); err != nil {
		return fmt.Errorf("write declarations: %w", err)
	}

	return nil
}

func renderDeclarationTable(report domain.CollectReport) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Kind", "Declaration", "Location"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	if report.Result != nil {
		w := backends.NewWriter()

		for _, d := range report.Result.Decls {
			table.Append([]string{d.Kind.String(), w.Signature(d), d.Loc.String()})
		}
	}

	table.Render()

	return tableBuffer.String()
}
