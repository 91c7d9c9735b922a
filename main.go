// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/ereborstudios/smaug/cmd/smaug"

func main() {
	cmd.Execute()
}
