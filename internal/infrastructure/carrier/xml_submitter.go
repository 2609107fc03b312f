package carrier

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
)

const (
	nsSOAP    = "http://schemas.xmlsoap.org/soap/envelope/"
	nsDispute = "urn:weight-dispute:v1"
)

var _ ports.CarrierDisputeSubmitter = (*XMLSubmitter)(nil)

// XMLSubmitter servicio SOAP de transportadoras B2B: reclamo XML firmado, enviado por mTLS.
// Sin certificado el reclamo viaja sin firma y por TLS simple.
type XMLSubmitter struct {
	endpoints map[string]string
	cert      *tls.Certificate
	client    *http.Client
	now       func() time.Time
}

func NewXMLSubmitter(endpoints map[string]string, cert *tls.Certificate, timeout time.Duration) *XMLSubmitter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cert != nil {
		transport.TLSClientConfig = &tls.Config{
			Certificates: []tls.Certificate{*cert},
			MinVersion:   tls.VersionTLS12,
		}
	}
	return &XMLSubmitter{
		endpoints: endpoints,
		cert:      cert,
		client:    &http.Client{Timeout: timeout, Transport: transport},
		now:       time.Now,
	}
}

// BuildClaim documento del reclamo (firmado si hay certificado).
func (s *XMLSubmitter) BuildClaim(req ports.SubmissionRequest) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	claim := doc.CreateElement("WeightDisputeClaim")
	claim.CreateAttr("xmlns", nsDispute)
	claim.CreateAttr("Id", "claim-"+req.DisputeID)
	claim.CreateElement("ExternalID").SetText(req.DisputeID)
	claim.CreateElement("AWB").SetText(req.TrackingID)
	claim.CreateElement("DeclaredWeightKg").SetText(strconv.FormatFloat(req.DeclaredWeightKg, 'f', 3, 64))
	claim.CreateElement("ChargedWeightKg").SetText(strconv.FormatFloat(req.ReportedWeightKg, 'f', 3, 64))
	ev := claim.CreateElement("Evidence")
	for _, u := range req.EvidenceURLs {
		ev.CreateElement("URL").SetText(u)
	}
	if req.Notes != "" {
		claim.CreateElement("Remarks").SetText(req.Notes)
	}
	claim.CreateElement("IssuedAt").SetText(s.now().UTC().Format(time.RFC3339))

	if s.cert != nil {
		if err := signEnveloped(doc, *s.cert); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (s *XMLSubmitter) Submit(ctx context.Context, req ports.SubmissionRequest) (*ports.SubmissionResult, error) {
	endpoint, ok := s.endpoints[strings.ToLower(req.CarrierID)]
	if !ok || endpoint == "" {
		return nil, fmt.Errorf("carrier %s: sin endpoint SOAP configurado", req.CarrierID)
	}
	claim, err := s.BuildClaim(req)
	if err != nil {
		return nil, err
	}

	env := etree.NewDocument()
	env.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := env.CreateElement("soapenv:Envelope")
	root.CreateAttr("xmlns:soapenv", nsSOAP)
	root.CreateElement("soapenv:Header")
	op := root.CreateElement("soapenv:Body").CreateElement("SubmitWeightDispute")
	op.CreateAttr("xmlns", nsDispute)
	op.AddChild(claim.Root().Copy())
	payload, err := env.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("soap: crear request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", nsDispute+"#SubmitWeightDispute")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("soap: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("soap: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("soap: leer respuesta: %w", err)
	}
	ref, err := parseSubmitResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("carrier %s: %w", req.CarrierID, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("carrier %s: HTTP %d", req.CarrierID, resp.StatusCode)
	}
	return &ports.SubmissionResult{Method: ChannelXML, ReferenceNumber: ref}, nil
}

// parseSubmitResponse extrae ReferenceNumber o el SOAP Fault.
func parseSubmitResponse(raw []byte) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return "", fmt.Errorf("soap: respuesta no es XML: %s", truncate(string(raw), 200))
	}
	if fault := doc.FindElement("//Fault"); fault != nil {
		code, msg := "", ""
		if e := fault.FindElement("faultcode"); e != nil {
			code = e.Text()
		}
		if e := fault.FindElement("faultstring"); e != nil {
			msg = e.Text()
		}
		return "", fmt.Errorf("SOAP Fault [%s]: %s", code, msg)
	}
	ref := doc.FindElement("//ReferenceNumber")
	if ref == nil || strings.TrimSpace(ref.Text()) == "" {
		return "", fmt.Errorf("soap: respuesta sin ReferenceNumber")
	}
	return strings.TrimSpace(ref.Text()), nil
}
