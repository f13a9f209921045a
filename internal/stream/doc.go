// Package stream implements the byte-level stages of the aggregation
// pipeline: concatenating the input files into one reader, accounting for
// bytes read, and splitting the stream into decoded JSON records.
//
// Every stage is pull driven. Nothing is read from a file until the stage
// after it asks for more data, so memory stays bounded by one read buffer
// and one pending line regardless of the input size.
package stream
