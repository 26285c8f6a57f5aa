// Copyright 2025 The CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import "github.com/spf13/cobra"

func newHelpTopics(c *Command) *cobra.Command {
	return &cobra.Command{
		Use:   "environment",
		Short: "environment variables",
		Long: `deepcoder consults the following environment variables:

	DEEPCODER_CACHE_DIR
		The directory holding caches shared by successive runs, such
		as the cache of programs that fail to compile. It defaults to
		a "deepcoder" directory in the user cache directory.

	DEEPCODER_DEBUG
		A comma-separated list of settings, each either name=value or
		just name for boolean settings:

		log=<level>
			Minimum level of log records written to stderr: debug,
			info, warn or error. The --verbose flag lowers it to debug.
			Defaults to info.

		logjson
			Write log records as JSON.

		compiletimeout=<duration>
			Bound on compiling one program and generating its examples
			during generate. Defaults to 10s.
`,
	}
}
