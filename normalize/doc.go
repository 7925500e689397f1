// Package normalize reads departure feeds into canonical records.
//
// Supported inputs:
//
//   - prediction analyzer CSV (epoch seconds)
//   - Tableau export, UTF-16 tab-separated, civil wall-clock times
//   - GTFS-Realtime TripUpdates protobuf
//   - SIRI Estimated Timetable JSON
//
// Every reader drops rows whose primary departure time cannot be interpreted
// and reports them in Stats instead of failing the read. Surviving records
// are indexed in feed order starting at zero.
package normalize
