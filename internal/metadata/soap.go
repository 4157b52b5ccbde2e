package metadata

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// soapNamespace and metadataNamespace are the envelope namespaces for
// Metadata API SOAP calls.
const (
	soapNamespace     = "http://schemas.xmlsoap.org/soap/envelope/"
	metadataNamespace = "http://soap.sforce.com/2006/04/metadata"
)

// describeMetadataEnvelope builds the SOAP body for describeMetadata.
func describeMetadataEnvelope(sessionID, apiVersion string) string {
	return fmt.Sprintf(`<soapenv:Envelope xmlns:soapenv="%s" xmlns:met="%s">
  <soapenv:Header>
    <met:SessionHeader>
      <met:sessionId>%s</met:sessionId>
    </met:SessionHeader>
  </soapenv:Header>
  <soapenv:Body>
    <met:describeMetadata>
      <met:asOfVersion>%s</met:asOfVersion>
    </met:describeMetadata>
  </soapenv:Body>
</soapenv:Envelope>`,
		soapNamespace, metadataNamespace, escapeXML(sessionID), escapeXML(apiVersion))
}

// listMetadataEnvelope builds the SOAP body for listMetadata on one type.
func listMetadataEnvelope(sessionID, metadataType, apiVersion string) string {
	return fmt.Sprintf(`<soapenv:Envelope xmlns:soapenv="%s" xmlns:met="%s">
  <soapenv:Header>
    <met:SessionHeader>
      <met:sessionId>%s</met:sessionId>
    </met:SessionHeader>
  </soapenv:Header>
  <soapenv:Body>
    <met:listMetadata>
      <met:queries>
        <met:type>%s</met:type>
      </met:queries>
      <met:asOfVersion>%s</met:asOfVersion>
    </met:listMetadata>
  </soapenv:Body>
</soapenv:Envelope>`,
		soapNamespace, metadataNamespace, escapeXML(sessionID), escapeXML(metadataType), escapeXML(apiVersion))
}

// extractElementText walks an XML document with a real parser and
// collects the text content of every element with the given local name,
// in document order. Entities are decoded and nested markup is rejected
// by the decoder instead of being silently truncated.
func extractElementText(r io.Reader, localName string) ([]string, error) {
	dec := xml.NewDecoder(r)
	var values []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return values, nil
		}
		if err != nil {
			return nil, fmt.Errorf("malformed XML response: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != localName {
			continue
		}
		var text string
		if err := dec.DecodeElement(&text, &start); err != nil {
			return nil, fmt.Errorf("malformed %s element: %w", localName, err)
		}
		values = append(values, text)
	}
}

// soapFaultString pulls the faultstring out of a SOAP fault body, if any.
func soapFaultString(body []byte) string {
	faults, err := extractElementText(bytes.NewReader(body), "faultstring")
	if err != nil || len(faults) == 0 {
		return ""
	}
	return faults[0]
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
