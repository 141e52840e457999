package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one verify invocation.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one verified series.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
}

// JUnitFailure represents a series whose streamed statistics diverged.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit builds a single test suite with one case per verify
// result. Results without a verdict count as passed.
func ConvertToJUnit(results []Result, tolerance float64, timestamp time.Time) *JUnitTestSuites {
	suite := JUnitTestSuite{
		Name:      "slidestats verify",
		Tests:     len(results),
		Timestamp: timestamp.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "tolerance", Value: fmt.Sprintf("%g", tolerance)},
		},
	}
	if len(results) > 0 {
		suite.Properties = append(suite.Properties,
			JUnitProperty{Name: "window", Value: fmt.Sprintf("%d", results[0].Window)})
	}

	for _, r := range results {
		tc := JUnitTestCase{
			Name:      r.Source,
			Classname: "slidestats." + r.Mode,
			Time:      r.Elapsed.Seconds(),
		}
		if r.Passed != nil && !*r.Passed {
			tc.Failure = &JUnitFailure{
				Message: fmt.Sprintf("max deviation %.3g exceeds tolerance %g", derefOr(r.MaxDeviation, 0), tolerance),
				Type:    "DeviationExceeded",
				Body: fmt.Sprintf("window=%d samples=%d chunks=%d retained=%d",
					r.Window, r.Samples, r.Chunks, len(r.Mean)),
			}
			suite.Failures++
		}
		suite.Time += tc.Time
		suite.TestCases = append(suite.TestCases, tc)
	}

	return &JUnitTestSuites{
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Time:       suite.Time,
		TestSuites: []JUnitTestSuite{suite},
	}
}

// WriteJUnitXML writes verify results as JUnit XML to path.
func WriteJUnitXML(results []Result, tolerance float64, path string) error {
	suites := ConvertToJUnit(results, tolerance, time.Now().UTC())

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
