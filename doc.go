// Package gtd answers analytical queries over the Global Terrorism Database
// (GTD): which countries had the most fatalities in a region, which actor
// groups were most active, how attack types evolved over time, and what the
// profile of a single country looks like.
//
// The pieces fit together as a one way pipeline.
//
// 1. Source and Parser
//
//    A gtd.Source produces raw records one at a time - CSV lines from a local
//    file, an http URL or S3 (package csv and aws/s3), JSON objects (package
//    json), or rows from a SQLite database (package sqlite). The EventParser turns each raw record into a
//    typed Event. A malformed record fails the whole load with
//    ErrDataUnavailable; the table is all or nothing.
//
// 2. Table
//
//    The Ingester builds an immutable Table. Every categorical column
//    (region, country, attack type, group, ...) is mapped to numeric row ids
//    by a Translator, and each row id owns a roaring bitmap of the record
//    positions holding that value, much like a Pilosa field. Package store
//    memoizes the load and can snapshot parsed events in boltdb; package
//    leveldb provides a Translator whose ids survive restarts.
//
// 3. View and Filter
//
//    A View is a bitmap of positions into a Table. Package filter narrows
//    views by year range, continent bucket, attack types and actor group by
//    intersecting bitmaps, so filters never copy events.
//
// 4. Aggregate
//
//    Package aggregate turns a View into small typed tables: fatalities per
//    country, top groups by incident count, attack types per year, country
//    profiles.
//
// 5. Query
//
//    Package query composes filters and aggregations into one operation per
//    analytical view, applying filters in a fixed order, with an optional
//    injected result cache. Packages http and cmd expose those views, and
//    package pilosa copies the table into a Pilosa index.
package gtd
