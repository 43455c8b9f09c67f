// Copyright (C) 2024 Catalog Cache Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

//go:build !linux && !darwin

package cachecore

import (
	"io/fs"
	"time"
)

// accessTime falls back to ModTime on platforms where we don't have
// a platform-specific stat_t decoder. A file's last modification is
// usually no later than its last access, so Prune may count a file
// as idle for longer than it really has been.
func accessTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}
