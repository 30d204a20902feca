package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/tontan-resort/tontan-pms/internal/guests"
	"github.com/tontan-resort/tontan-pms/internal/invoices"
)

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"baht": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(`<!DOCTYPE html>
<html lang="th">
<head>
<meta charset="utf-8">
<title>ใบแจ้งหนี้ {{.Invoice.InvoiceNumber}}</title>
<style>
body { font-family: "Sarabun", sans-serif; margin: 40px; color: #222; }
h1 { font-size: 20px; margin-bottom: 0; }
.meta { color: #666; font-size: 12px; margin-bottom: 24px; }
table { width: 100%; border-collapse: collapse; font-size: 13px; }
th, td { border-bottom: 1px solid #ddd; padding: 6px 8px; text-align: left; }
td.num, th.num { text-align: right; }
tfoot td { border: none; font-weight: bold; }
.footer { margin-top: 32px; font-size: 11px; color: #888; }
</style>
</head>
<body>
<h1>ต้นตาลรีสอร์ท</h1>
<div class="meta">
ใบแจ้งหนี้เลขที่ {{.Invoice.InvoiceNumber}}<br>
วันที่ออก {{.Invoice.IssueDate.Format "02/01/2006"}} ครบกำหนด {{.Invoice.DueDate.Format "02/01/2006"}}<br>
ลูกค้า {{.GuestName}}
</div>
<table>
<thead>
<tr><th>รายการ</th><th class="num">จำนวน</th><th class="num">ราคาต่อหน่วย</th><th class="num">จำนวนเงิน</th></tr>
</thead>
<tbody>
{{range .Invoice.Items}}
<tr><td>{{.Description}}</td><td class="num">{{.Quantity}}</td><td class="num">{{baht .UnitPrice}}</td><td class="num">{{baht .Amount}}</td></tr>
{{end}}
</tbody>
<tfoot>
<tr><td colspan="3" class="num">รวม</td><td class="num">{{baht .Invoice.Subtotal}}</td></tr>
{{if gt .Invoice.Discount 0.0}}<tr><td colspan="3" class="num">ส่วนลด</td><td class="num">-{{baht .Invoice.Discount}}</td></tr>{{end}}
<tr><td colspan="3" class="num">ภาษีมูลค่าเพิ่ม {{baht .Invoice.TaxRate}}%</td><td class="num">{{baht .Invoice.TaxAmount}}</td></tr>
<tr><td colspan="3" class="num">ยอดสุทธิ</td><td class="num">{{baht .Invoice.Total}}</td></tr>
</tfoot>
</table>
{{if .Invoice.Notes}}<p>{{.Invoice.Notes}}</p>{{end}}
<div class="footer">เอกสารออกโดยระบบ สถานะ: {{.Invoice.Status}}</div>
</body>
</html>`))

// InvoiceHTML renders the printable HTML for an invoice.
func InvoiceHTML(inv *invoices.Invoice, guest *guests.Guest) (string, error) {
	data := struct {
		Invoice   *invoices.Invoice
		GuestName string
	}{Invoice: inv, GuestName: guest.FullName()}

	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("report: render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return buf.String(), nil
}
