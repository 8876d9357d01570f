package fetcher

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

type testItem struct {
	XMLName xml.Name `xml:"item"`
	Name    string   `xml:"name"`
	Value   int      `xml:"value"`
}

func TestDecodeXML(t *testing.T) {
	input := `<root>
		<item><name>alpha</name><value>1</value></item>
		<other>skip me</other>
		<item><name>beta</name><value>2</value></item>
	</root>`

	var items []testItem
	err := DecodeXML(context.Background(), strings.NewReader(input), "item", func(it testItem) error {
		items = append(items, it)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "alpha", items[0].Name)
	assert.Equal(t, 2, items[1].Value)
}

func TestDecodeXML_Latin1(t *testing.T) {
	body, err := charmap.ISO8859_1.NewEncoder().String(`<?xml version="1.0" encoding="ISO-8859-1"?><root><item><name>Café Royal</name></item></root>`)
	require.NoError(t, err)

	var names []string
	err = DecodeXML(context.Background(), bytes.NewReader([]byte(body)), "item", func(it testItem) error {
		names = append(names, it.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Café Royal"}, names)
}

func TestDecodeXML_CallbackError(t *testing.T) {
	stop := errors.New("stop")
	input := `<root><item><name>a</name></item><item><name>b</name></item></root>`

	calls := 0
	err := DecodeXML(context.Background(), strings.NewReader(input), "item", func(testItem) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestDecodeXML_Malformed(t *testing.T) {
	err := DecodeXML(context.Background(), strings.NewReader(`<root><item><name>a</name>`), "item", func(testItem) error { return nil })
	assert.Error(t, err)
}

func TestDecodeXML_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := DecodeXML(ctx, strings.NewReader(`<root/>`), "item", func(testItem) error { return nil })
	assert.Error(t, err)
}
