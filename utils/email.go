package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"
	"gopkg.in/gomail.v2"
)

type OrderLine struct {
	Name      string
	Variant   string
	Quantity  int
	LineTotal string
}

// OrderConfirmationData is rendered into the buyer's confirmation email.
type OrderConfirmationData struct {
	StoreName     string
	OrderCode     string
	OrderNumber   int64
	CustomerName  string
	Items         []OrderLine
	Subtotal      string
	Discount      string
	Shipping      string
	CreditUsed    string
	GiftCard      string
	Total         string
	Currency      string
	PaymentMethod string
	DetailLink    string
}

type LowStockLine struct {
	Name      string
	Variant   string
	Inventory int
}

type LowStockData struct {
	StoreName string
	Threshold int
	Items     []LowStockLine
}

var confirmationTmpl = template.Must(template.New("order_confirmation").Parse(`<html><body>
<h2>{{.StoreName}}: order #{{.OrderNumber}}</h2>
<p>Hi {{.CustomerName}}, thanks for your order. Your order code is <b>{{.OrderCode}}</b>.</p>
<table>
{{range .Items}}<tr><td>{{.Name}}{{if .Variant}} ({{.Variant}}){{end}}</td><td>x{{.Quantity}}</td><td>{{.LineTotal}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Subtotal}}<br>Discount: {{.Discount}}<br>Shipping: {{.Shipping}}{{if .GiftCard}}<br>Gift card: {{.GiftCard}}{{end}}{{if .CreditUsed}}<br>Store credit: {{.CreditUsed}}{{end}}</p>
<p><b>Total: {{.Total}} {{.Currency}}</b> ({{.PaymentMethod}})</p>
<p><img src="cid:order_qr.png" alt="{{.OrderCode}}"></p>
<p><a href="{{.DetailLink}}">View your order</a></p>
</body></html>`))

func RenderOrderConfirmation(data OrderConfirmationData) (string, error) {
	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends buyer mail through gomail and merchant alerts through
// jordan-wright/email.
type SMTPMailer struct {
	Settings SMTPSettings
}

func (m SMTPMailer) SendOrderConfirmation(to string, data OrderConfirmationData, qrPNG []byte) error {
	body, err := RenderOrderConfirmation(data)
	if err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.Settings.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("%s: order #%d confirmed", data.StoreName, data.OrderNumber))
	msg.SetBody("text/html", body)
	if len(qrPNG) > 0 {
		msg.Embed("order_qr.png", gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(qrPNG)
			return err
		}), gomail.SetHeader(map[string][]string{
			"Content-Type": {"image/png"},
		}))
	}

	d := gomail.NewDialer(m.Settings.Host, m.Settings.Port, m.Settings.Username, m.Settings.Password)
	return d.DialAndSend(msg)
}

func RenderLowStockAlert(data LowStockData) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "The following items in %s are at or below %d units:\n\n", data.StoreName, data.Threshold)
	for _, it := range data.Items {
		name := it.Name
		if it.Variant != "" {
			name += " - " + it.Variant
		}
		fmt.Fprintf(&b, "- %s: %d left\n", name, it.Inventory)
	}
	return b.String()
}

func (m SMTPMailer) SendLowStockAlert(to string, data LowStockData) error {
	e := email.NewEmail()
	e.From = m.Settings.From
	e.To = []string{to}
	e.Subject = fmt.Sprintf("%s: low stock alert", data.StoreName)
	e.Text = []byte(RenderLowStockAlert(data))

	addr := m.Settings.Host + ":" + strconv.Itoa(m.Settings.Port)
	var auth smtp.Auth
	if m.Settings.Username != "" {
		auth = smtp.PlainAuth("", m.Settings.Username, m.Settings.Password, m.Settings.Host)
	}
	return e.Send(addr, auth)
}
