// SPDX-License-Identifier: MPL-2.0

package main

import cmd "bastion/cmd/bastion"

func main() {
	cmd.Execute()
}
