package ledger

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const attributeChangedEvent = "DIDAttributeChanged"

// registryABI is the read surface of the identity registry contract.
const registryABI = `[
  {"type":"function","name":"getDID","stateMutability":"view",
   "inputs":[{"name":"identity","type":"address"}],
   "outputs":[{"name":"controller","type":"address"},{"name":"service","type":"bytes32"},{"name":"authenticationKey","type":"bytes"}]},
  {"type":"function","name":"changedDidDocuments","stateMutability":"view",
   "inputs":[{"name":"identity","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"hasRole","stateMutability":"view",
   "inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"event","name":"DIDAttributeChanged","anonymous":false,
   "inputs":[
     {"name":"identity","type":"address","indexed":true},
     {"name":"name","type":"bytes32","indexed":false},
     {"name":"value","type":"bytes","indexed":false},
     {"name":"validTo","type":"uint256","indexed":false},
     {"name":"previousChange","type":"uint256","indexed":false}]}
]`

// ParseRegistryABI parses the registry ABI.
func ParseRegistryABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(registryABI))
}
