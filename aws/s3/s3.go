// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package s3 opens GTD extracts stored in Amazon S3 so they can be read by
// csv.Source.
package s3

import (
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// Scheme is the URL scheme of S3 objects.
const Scheme = "s3"

// IsURL reports whether u names an S3 object.
func IsURL(u string) bool {
	return strings.HasPrefix(u, Scheme+"://")
}

// OpenerOption is a functional option type for s3.Opener.
type OpenerOption func(o *Opener)

// OptOpenerRegion is an OpenerOption which sets the AWS region used when no
// client is given.
func OptOpenerRegion(region string) OpenerOption {
	return func(o *Opener) {
		o.region = region
	}
}

// OptOpenerClient is an OpenerOption which sets the S3 client.
func OptOpenerClient(client s3iface.S3API) OpenerOption {
	return func(o *Opener) {
		o.s3 = client
	}
}

// Opener is a csv.OpenStringer reading one S3 object. Every Open fetches
// the object again from the start.
type Opener struct {
	bucket string
	key    string
	region string

	s3 s3iface.S3API
}

// NewOpener returns an Opener for a URL of the form s3://bucket/key.
func NewOpener(u string, opts ...OpenerOption) (*Opener, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing '%s'", u)
	}
	if parsed.Scheme != Scheme || parsed.Host == "" || strings.Trim(parsed.Path, "/") == "" {
		return nil, errors.Errorf("'%s' is not of the form s3://bucket/key", u)
	}
	o := &Opener{
		bucket: parsed.Host,
		key:    strings.TrimPrefix(parsed.Path, "/"),
		region: "us-east-1",
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.s3 == nil {
		o.s3, err = newClient(o.region)
		if err != nil {
			return nil, err
		}
	}
	return o, nil
}

func newClient(region string) (*s3.S3, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region)},
	)
	if err != nil {
		return nil, errors.Wrap(err, "getting new session")
	}
	return s3.New(sess), nil
}

// Open fetches the object.
func (o *Opener) Open() (io.ReadCloser, error) {
	result, err := o.s3.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %v", o)
	}
	return result.Body, nil
}

// String returns the object's URL.
func (o *Opener) String() string {
	return Scheme + "://" + o.bucket + "/" + o.key
}

// List returns an Opener for every object in bucket whose key starts with
// prefix, in key order.
func List(bucket, prefix string, opts ...OpenerOption) ([]*Opener, error) {
	tmpl := &Opener{bucket: bucket, region: "us-east-1"}
	for _, opt := range opts {
		opt(tmpl)
	}
	if tmpl.s3 == nil {
		client, err := newClient(tmpl.region)
		if err != nil {
			return nil, err
		}
		tmpl.s3 = client
	}
	var ret []*Opener
	err := tmpl.s3.ListObjectsPages(&s3.ListObjectsInput{Bucket: aws.String(bucket), Prefix: aws.String(prefix)},
		func(page *s3.ListObjectsOutput, last bool) bool {
			for _, obj := range page.Contents {
				o := *tmpl
				o.key = aws.StringValue(obj.Key)
				ret = append(ret, &o)
			}
			return true
		})
	if err != nil {
		return nil, errors.Wrap(err, "listing objects")
	}
	return ret, nil
}
