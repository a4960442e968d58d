// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/jcodagnone/geomux/geocode"
)

// EsriSOAP talks to a self-hosted ArcGIS geocode server over its SOAP
// endpoint. The candidate semantics match EsriWGS; only the envelope
// differs, so the encoding is a construction choice rather than a separate
// service family. Responses are decoded charset-aware, since older servers
// answer in ISO-8859-1.
type EsriSOAP struct {
	geocode.ServiceBase
}

// SettingSingleLineField names the locator's single-line input field.
const SettingSingleLineField = "single_line_field"

const defaultSingleLineField = "SingleLine"

// NewEsriSOAP builds the adapter. The endpoint setting is required; there
// is no hosted default.
func NewEsriSOAP(settings geocode.Settings, pre []geocode.Preprocessor, post []geocode.Postprocessor) (*EsriSOAP, error) {
	if err := settings.Require("esri_soap", geocode.SettingEndpoint); err != nil {
		return nil, err
	}

	if pre == nil {
		pre = []geocode.Preprocessor{geocode.CancelIfPOBox{}}
	}

	if post == nil {
		post = []geocode.Postprocessor{
			geocode.ScoreSorter{},
			geocode.GroupBy{Attrs: []string{"match_addr"}},
		}
	}

	return &EsriSOAP{
		ServiceBase: geocode.NewServiceBase("esri_soap", "", nil, settings, pre, post),
	}, nil
}

// Geocode implements geocode.GeocodeService.
func (s *EsriSOAP) Geocode(ctx context.Context, q geocode.Query) ([]geocode.Candidate, *geocode.UpstreamResponseInfo) {
	return s.Run(ctx, q, s.call)
}

func (s *EsriSOAP) call(ctx context.Context, q geocode.Query) ([]geocode.Candidate, error) {
	payload, err := s.envelope(q)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	var resp soapResponseEnvelope
	if err := s.PostXML(ctx, s.Endpoint(), bytes.NewReader(payload), &resp); err != nil {
		return nil, err
	}

	if resp.Body.Fault != nil {
		return nil, &geocode.UpstreamError{
			Type:    geocode.ErrorTypeInvalidRequest,
			Message: fmt.Sprintf("soap fault: %s", resp.Body.Fault.FaultString),
		}
	}

	if resp.Body.Response == nil {
		return nil, &geocode.UpstreamError{
			Type:    geocode.ErrorTypeParse,
			Message: "response carries neither a result nor a fault",
		}
	}

	return soapCandidates(resp.Body.Response.Result), nil
}

func (s *EsriSOAP) envelope(q geocode.Query) ([]byte, error) {
	var props []soapProperty

	addProp := func(key, value string) {
		if value != "" {
			props = append(props, soapProperty{
				Key:   key,
				Value: soapTypedValue{Type: "xs:string", Text: value},
			})
		}
	}

	if q.Query != "" {
		addProp(s.Settings().String(SettingSingleLineField, defaultSingleLineField), q.Query)
	} else {
		addProp("Street", q.Address)
		addProp("City", q.City)
		addProp("State", q.State)
		addProp("ZIP", q.Postal)
	}

	env := soapRequestEnvelope{
		SoapNS: "http://schemas.xmlsoap.org/soap/envelope/",
		XSINS:  "http://www.w3.org/2001/XMLSchema-instance",
		XSNS:   "http://www.w3.org/2001/XMLSchema",
		Body: soapRequestBody{
			Find: soapFindAddressCandidates{
				NS: "http://www.esri.com/schemas/ArcGIS/10.1",
				Address: soapPropertySet{
					Type:       "PropertySet",
					Properties: props,
				},
			},
		},
	}

	body, err := xml.Marshal(env)
	if err != nil {
		return nil, err
	}

	return append([]byte(xml.Header), body...), nil
}

// soapCandidates joins the field list with each record's positional values.
func soapCandidates(rs soapRecordSet) []geocode.Candidate {
	fields := rs.Fields.FieldArray.Fields

	candidates := make([]geocode.Candidate, 0, len(rs.Records.Records))

	for _, record := range rs.Records.Records {
		var c geocode.Candidate
		c.WKID = 4326
		c.Service = "esri_soap"

		for i, value := range record.Values.Values {
			if i >= len(fields) {
				break
			}

			switch fields[i].Name {
			case "Shape":
				if value.X != nil && value.Y != nil {
					c.X = *value.X
					c.Y = *value.Y
				}
			case "Score":
				if score, err := strconv.ParseFloat(value.Text, 64); err == nil {
					c.Score = score
				}
			case "Match_addr":
				c.MatchAddr = value.Text
			case "Addr_type":
				c.LocatorType = value.Text
				c.Locator = esriLocatorMap[value.Text]
			case "Loc_name":
				if c.LocatorType == "" {
					c.LocatorType = value.Text
				}
			}
		}

		candidates = append(candidates, c)
	}

	return candidates
}

type soapRequestEnvelope struct {
	XMLName xml.Name        `xml:"soap:Envelope"`
	SoapNS  string          `xml:"xmlns:soap,attr"`
	XSINS   string          `xml:"xmlns:xsi,attr"`
	XSNS    string          `xml:"xmlns:xs,attr"`
	Body    soapRequestBody `xml:"soap:Body"`
}

type soapRequestBody struct {
	Find soapFindAddressCandidates `xml:"FindAddressCandidates"`
}

type soapFindAddressCandidates struct {
	NS      string          `xml:"xmlns,attr"`
	Address soapPropertySet `xml:"Address"`
}

type soapPropertySet struct {
	Type       string         `xml:"xsi:type,attr"`
	Properties []soapProperty `xml:"PropertyArray>PropertySetProperty"`
}

type soapProperty struct {
	Key   string         `xml:"Key"`
	Value soapTypedValue `xml:"Value"`
}

type soapTypedValue struct {
	Type string `xml:"xsi:type,attr"`
	Text string `xml:",chardata"`
}

type soapResponseEnvelope struct {
	Body struct {
		Response *struct {
			Result soapRecordSet `xml:"Result"`
		} `xml:"FindAddressCandidatesResponse"`
		Fault *struct {
			FaultString string `xml:"faultstring"`
		} `xml:"Fault"`
	} `xml:"Body"`
}

type soapRecordSet struct {
	Fields struct {
		FieldArray struct {
			Fields []struct {
				Name string `xml:"Name"`
			} `xml:"Field"`
		} `xml:"FieldArray"`
	} `xml:"Fields"`
	Records struct {
		Records []struct {
			Values struct {
				Values []soapValue `xml:"Value"`
			} `xml:"Values"`
		} `xml:"Record"`
	} `xml:"Records"`
}

// soapValue is one positional record value: scalar chardata for most
// fields, nested X/Y elements for the shape.
type soapValue struct {
	X    *float64 `xml:"X"`
	Y    *float64 `xml:"Y"`
	Text string   `xml:",chardata"`
}
